package topic

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTopic(t *testing.T, dir, id, yml, keywords string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id+".yml"), []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	if keywords != "" {
		if err := os.WriteFile(filepath.Join(dir, id+".keywords.json"), []byte(keywords), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

const relevanceTopic = `
title: "Puerto Rico Humanitarian Crisis"

settings:
  analyze_titles: true
  analyze_articles: true
  analyze_relevance: true
  clearance:
    mode: relevance
    relevance_threshold: 0.65
`

func TestLoadValidTopic(t *testing.T) {
	tempDir := t.TempDir()
	writeTopic(t, tempDir, "__pr_h_c__", relevanceTopic, `{"Crisis": 0.9, "Humanitarian Aid": 0.7, "the": 0.1}`)
	if err := os.WriteFile(filepath.Join(tempDir, "__pr_h_c__.utterances.txt"), []byte("First line.\n\n  Second line.  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(tempDir)
	profile, err := loader.Load("__pr_h_c__")
	if err != nil {
		t.Fatal(err)
	}

	if profile.ID() != "__pr_h_c__" {
		t.Errorf("Expected ID '__pr_h_c__', got '%s'", profile.ID())
	}
	if profile.Title() != "Puerto Rico Humanitarian Crisis" {
		t.Errorf("Expected title 'Puerto Rico Humanitarian Crisis', got '%s'", profile.Title())
	}

	expected := []string{"aid", "crisis", "humanitarian"}
	if got := profile.Keywords().Sorted(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected keywords %v, got %v", expected, got)
	}
	if profile.HasKeyword("the") {
		t.Error("Stopword 'the' should have been removed")
	}
	if profile.Salience("crisis") != 0.9 {
		t.Errorf("Expected salience 0.9 for 'crisis', got %v", profile.Salience("crisis"))
	}

	settings := profile.Settings()
	if settings.Clearance.Mode != ClearanceRelevance {
		t.Errorf("Expected relevance clearance, got '%s'", settings.Clearance.Mode)
	}
	if settings.Clearance.RelevanceThreshold != 0.65 {
		t.Errorf("Expected threshold 0.65, got %v", settings.Clearance.RelevanceThreshold)
	}
	if settings.MinContextWords != 5 {
		t.Errorf("Expected default min context words 5, got %d", settings.MinContextWords)
	}

	utterances := profile.Utterances()
	if !reflect.DeepEqual(utterances, []string{"First line.", "Second line."}) {
		t.Errorf("Unexpected utterances: %v", utterances)
	}

	cached, err := loader.GetProfile("__pr_h_c__")
	if err != nil || cached != profile {
		t.Errorf("Expected cached profile, got %v (%v)", cached, err)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	writeTopic(t, tempDir, "topic", relevanceTopic, `{"Hurricane María": 1, "FEMA's relief": 0.5, "Power Grid": 0.4}`)

	loader := NewLoader(tempDir)
	first, err := loader.Load("topic")
	if err != nil {
		t.Fatal(err)
	}
	second, err := loader.Load("topic")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Keywords().Sorted(), second.Keywords().Sorted()) {
		t.Errorf("Expected identical keyword sets, got %v and %v", first.Keywords().Sorted(), second.Keywords().Sorted())
	}
}

func TestLoadMissingConfig(t *testing.T) {
	loader := NewLoader(t.TempDir())
	_, err := loader.Load("missing")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadMissingKeywordFile(t *testing.T) {
	tempDir := t.TempDir()
	writeTopic(t, tempDir, "nokeywords", relevanceTopic, "")

	_, err := NewLoader(tempDir).Load("nokeywords")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadMissingExplicitUtteranceFile(t *testing.T) {
	tempDir := t.TempDir()
	yml := relevanceTopic + "\nutterances_file: \"nope.txt\"\n"
	writeTopic(t, tempDir, "topic", yml, `{"crisis": 1}`)

	_, err := NewLoader(tempDir).Load("topic")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadIntersectionDefaults(t *testing.T) {
	tempDir := t.TempDir()
	yml := `
title: "James Gunn Controversy"
settings:
  analyze_titles: true
`
	writeTopic(t, tempDir, "__j_g_c__", yml, `{"gunn": 1, "tweets": 0.5}`)

	profile, err := NewLoader(tempDir).Load("__j_g_c__")
	if err != nil {
		t.Fatal(err)
	}

	clearance := profile.Settings().Clearance
	if clearance.Mode != ClearanceIntersection {
		t.Errorf("Expected intersection clearance, got '%s'", clearance.Mode)
	}
	if clearance.IntersectionMin != 3 {
		t.Errorf("Expected default intersection min 3, got %d", clearance.IntersectionMin)
	}
}

func TestLoadExplicitZeroThreshold(t *testing.T) {
	tempDir := t.TempDir()
	yml := "title: t\nsettings:\n  analyze_relevance: true\n  clearance:\n    relevance_threshold: 0\n"
	writeTopic(t, tempDir, "topic", yml, `{"crisis": 1}`)

	profile, err := NewLoader(tempDir).Load("topic")
	if err != nil {
		t.Fatal(err)
	}
	clearance := profile.Settings().Clearance
	if clearance.Mode != ClearanceRelevance || clearance.RelevanceThreshold != 0 {
		t.Errorf("Expected relevance clearance at 0, got %s at %v", clearance.Mode, clearance.RelevanceThreshold)
	}
}

func TestLoadInvalidTopics(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"missing title", "settings:\n  analyze_titles: true\n"},
		{"no analyses", "title: t\n"},
		{"relevance without analysis", "title: t\nsettings:\n  analyze_titles: true\n  clearance:\n    mode: relevance\n"},
		{"relevance without threshold", "title: t\nsettings:\n  analyze_relevance: true\n  clearance:\n    mode: relevance\n"},
		{"implied relevance without threshold", "title: t\nsettings:\n  analyze_relevance: true\n"},
		{"intersection without token analysis", "title: t\nsettings:\n  analyze_relevance: true\n  clearance:\n    mode: intersection\n"},
		{"unknown mode", "title: t\nsettings:\n  analyze_titles: true\n  clearance:\n    mode: vibes\n"},
		{"negative min", "title: t\nsettings:\n  analyze_titles: true\n  clearance:\n    intersection_min: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeTopic(t, tempDir, "topic", tt.yml, `{"crisis": 1}`)

			_, err := NewLoader(tempDir).Load("topic")
			if err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
			if errors.Is(err, ErrConfigNotFound) {
				t.Errorf("Expected validation error, got ErrConfigNotFound")
			}
		})
	}
}

func TestProfileAccessorsReturnCopies(t *testing.T) {
	profile := NewProfile("id", "title", map[string]float64{"crisis": 1}, Settings{}, []string{"hello"})

	kw := profile.Keywords()
	kw["injected"] = struct{}{}
	if profile.HasKeyword("injected") {
		t.Error("Mutating Keywords() result should not affect the profile")
	}

	u := profile.Utterances()
	u[0] = "changed"
	if profile.Utterances()[0] != "hello" {
		t.Error("Mutating Utterances() result should not affect the profile")
	}
}

func TestGetProfileNotLoaded(t *testing.T) {
	loader := NewLoader(t.TempDir())
	if _, err := loader.GetProfile("nope"); err == nil {
		t.Error("Expected error for topic that was never loaded")
	}
}
