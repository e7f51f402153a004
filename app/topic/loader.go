package topic

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Loader struct {
	topicsDir string
	cache     map[string]*Profile
	mu        sync.RWMutex
}

func NewLoader(topicsDir string) *Loader {
	return &Loader{
		topicsDir: topicsDir,
		cache:     make(map[string]*Profile),
	}
}

func (l *Loader) Load(topicID string) (*Profile, error) {
	configFile := filepath.Join(l.topicsDir, topicID+".yml")
	config, err := l.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	if err := l.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	keywordsFile := l.resolve(config.KeywordsFile, topicID+".keywords.json")
	rawKeywords, err := l.readKeywords(keywordsFile)
	if err != nil {
		return nil, err
	}

	utterancesFile := l.resolve(config.UtterancesFile, topicID+".utterances.txt")
	utterances, err := l.readUtterances(utterancesFile, config.UtterancesFile != "")
	if err != nil {
		return nil, err
	}

	profile := NewProfile(topicID, config.Title, rawKeywords, config.Settings, utterances)
	if profile.keywords.Len() == 0 {
		return nil, fmt.Errorf("topic %s has no keywords after normalization", topicID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[topicID] = profile

	slog.Debug("Topic loaded", "topic", topicID, "keywords", profile.keywords.Len(), "utterances", len(utterances), "clearance", config.Settings.Clearance.Mode)

	return profile, nil
}

func (l *Loader) LoadAll(topicIDs []string) ([]*Profile, error) {
	profiles := make([]*Profile, 0, len(topicIDs))
	for _, id := range topicIDs {
		profile, err := l.Load(id)
		if err != nil {
			return nil, fmt.Errorf("error loading topic %s: %w", id, err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (l *Loader) GetProfile(topicID string) (*Profile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	profile, ok := l.cache[topicID]
	if !ok {
		return nil, fmt.Errorf("topic '%s' not loaded", topicID)
	}
	return profile, nil
}

func (l *Loader) GetProfiles() map[string]*Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()

	profilesCopy := make(map[string]*Profile, len(l.cache))
	for k, v := range l.cache {
		profilesCopy[k] = v
	}
	return profilesCopy
}

func (l *Loader) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var declared struct {
		Settings struct {
			Clearance struct {
				RelevanceThreshold *float64 `yaml:"relevance_threshold"`
			} `yaml:"clearance"`
		} `yaml:"settings"`
	}
	if err := yaml.Unmarshal(data, &declared); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.thresholdSet = declared.Settings.Clearance.RelevanceThreshold != nil

	if config.Settings.Clearance.Mode == "" {
		if config.Settings.AnalyzeRelevance {
			config.Settings.Clearance.Mode = ClearanceRelevance
		} else {
			config.Settings.Clearance.Mode = ClearanceIntersection
		}
	}
	if config.Settings.Clearance.Mode == ClearanceIntersection && config.Settings.Clearance.IntersectionMin == 0 {
		config.Settings.Clearance.IntersectionMin = 3
	}
	if config.Settings.MinContextWords == 0 {
		config.Settings.MinContextWords = 5
	}

	return &config, nil
}

func (l *Loader) validateConfig(config *Config) error {
	if config.Title == "" {
		return fmt.Errorf("topic title is required")
	}

	s := config.Settings
	if !s.AnalyzeTitles && !s.AnalyzeArticles && !s.AnalyzeRelevance {
		return fmt.Errorf("at least one analysis must be enabled")
	}

	nonNegativeFields := map[string]int{
		"intersection min":         s.Clearance.IntersectionMin,
		"intersection min divider": s.Clearance.IntersectionMinDivider,
		"min context words":        s.MinContextWords,
	}
	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	switch s.Clearance.Mode {
	case ClearanceRelevance:
		if !s.AnalyzeRelevance {
			return fmt.Errorf("relevance clearance requires analyze_relevance")
		}
		if !config.thresholdSet {
			return fmt.Errorf("relevance clearance requires relevance_threshold")
		}
	case ClearanceIntersection:
		if !s.AnalyzeTitles && !s.AnalyzeArticles {
			return fmt.Errorf("intersection clearance requires analyze_titles or analyze_articles")
		}
	default:
		return fmt.Errorf("invalid clearance mode: %s", s.Clearance.Mode)
	}

	return nil
}

func (l *Loader) readKeywords(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: keyword file %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	var keywords map[string]float64
	if err := json.Unmarshal(data, &keywords); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file %s: %w", path, err)
	}
	return keywords, nil
}

func (l *Loader) readUtterances(path string, required bool) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: utterance file %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read utterance file: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan utterance file: %w", err)
	}
	return lines, nil
}

func (l *Loader) resolve(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.topicsDir, name)
}
