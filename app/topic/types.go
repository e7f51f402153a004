package topic

import (
	"errors"

	"github.com/lysyi3m/topic-agent/app/keyword"
)

var ErrConfigNotFound = errors.New("topic configuration not found")

const (
	ClearanceRelevance    = "relevance"
	ClearanceIntersection = "intersection"
)

// File layout of <topics_dir>/<topic_id>.yml
type Config struct {
	Title          string   `yaml:"title"`
	KeywordsFile   string   `yaml:"keywords_file"`   // JSON object keyword -> salience
	UtterancesFile string   `yaml:"utterances_file"` // one sentence per line
	Settings       Settings `yaml:"settings"`

	thresholdSet bool // relevance_threshold present in the file
}

type Settings struct {
	AnalyzeTitles      bool            `yaml:"analyze_titles"`
	AnalyzeArticles    bool            `yaml:"analyze_articles"`
	AnalyzeRelevance   bool            `yaml:"analyze_relevance"`
	CountComments      bool            `yaml:"count_comments"`
	MinContextWords    int             `yaml:"min_context_words"`
	NoRepeatUtterances bool            `yaml:"no_repeat_utterances"`
	Clearance          ClearanceConfig `yaml:"clearance"`
}

type ClearanceConfig struct {
	Mode                   string  `yaml:"mode"`
	RelevanceThreshold     float64 `yaml:"relevance_threshold"`
	IntersectionMin        int     `yaml:"intersection_min"`
	IntersectionMinDivider int     `yaml:"intersection_min_divider"` // derive min from average title size when > 0
}

// Profile is the loaded, normalized form of a topic. It is never mutated after Load.
type Profile struct {
	id         string
	title      string
	keywords   keyword.Set
	salience   map[string]float64
	settings   Settings
	utterances []string
}

func (p *Profile) ID() string {
	return p.id
}

func (p *Profile) Title() string {
	return p.title
}

// Keywords returns a copy of the normalized keyword set.
func (p *Profile) Keywords() keyword.Set {
	return p.keywords.Clone()
}

func (p *Profile) HasKeyword(tok string) bool {
	return p.keywords.Has(tok)
}

// Intersect returns the topic keywords present in tokens.
func (p *Profile) Intersect(tokens keyword.Set) keyword.Set {
	return p.keywords.Intersect(tokens)
}

// Salience returns the weight the keyword file gave a token, 0 when unknown.
func (p *Profile) Salience(tok string) float64 {
	return p.salience[tok]
}

func (p *Profile) Settings() Settings {
	return p.settings
}

func (p *Profile) Utterances() []string {
	out := make([]string, len(p.utterances))
	copy(out, p.utterances)
	return out
}

// NewProfile builds a profile from raw keywords, applying the shared normalization.
func NewProfile(id, title string, rawKeywords map[string]float64, settings Settings, utterances []string) *Profile {
	keywords := make(keyword.Set)
	salience := make(map[string]float64)
	for phrase, weight := range rawKeywords {
		for tok := range keyword.Normalize(phrase) {
			keywords[tok] = struct{}{}
			if weight > salience[tok] {
				salience[tok] = weight
			}
		}
	}

	lines := make([]string, len(utterances))
	copy(lines, utterances)

	return &Profile{
		id:         id,
		title:      title,
		keywords:   keywords,
		salience:   salience,
		settings:   settings,
		utterances: lines,
	}
}
