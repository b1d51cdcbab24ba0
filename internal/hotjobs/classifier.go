// Package hotjobs decides which searches are served from the pre-scored job
// store and expands those searches into related titles.
package hotjobs

import "strings"

// Config is the hot-job routing configuration. It is read once at startup.
type Config struct {
	Cities        []string `mapstructure:"cities" validate:"required,min=1,dive,required"`
	ExactTitles   []string `mapstructure:"exact_titles"`
	FuzzyKeywords []string `mapstructure:"fuzzy_keywords"`
	FuzzyEnabled  bool     `mapstructure:"fuzzy_enabled"`
}

// DefaultConfig returns the built-in allow-lists.
func DefaultConfig() Config {
	return Config{
		Cities: []string{"sydney", "melbourne"},
		ExactTitles: []string{
			"software engineer", "software developer", "data scientist",
			"data analyst", "data engineer", "product manager", "project manager",
			"business analyst", "devops engineer", "frontend developer",
			"backend developer", "full stack developer", "ux designer",
			"accountant", "registered nurse",
		},
		FuzzyKeywords: []string{
			"software engineer", "developer", "data scien", "machine learning",
			"cloud engineer", "cyber security",
		},
		FuzzyEnabled: true,
	}
}

// Classifier routes (title, city) pairs between the store and live adapters.
type Classifier struct {
	cities   []string
	exact    map[string]struct{}
	fuzzy    []string
	useFuzzy bool
}

// NewClassifier lower-cases and copies cfg so later edits to it have no effect.
func NewClassifier(cfg Config) *Classifier {
	c := &Classifier{
		exact:    make(map[string]struct{}, len(cfg.ExactTitles)),
		useFuzzy: cfg.FuzzyEnabled,
	}
	for _, city := range cfg.Cities {
		if city = normalise(city); city != "" {
			c.cities = append(c.cities, city)
		}
	}
	for _, t := range cfg.ExactTitles {
		if t = normalise(t); t != "" {
			c.exact[t] = struct{}{}
		}
	}
	for _, k := range cfg.FuzzyKeywords {
		if k = normalise(k); k != "" {
			c.fuzzy = append(c.fuzzy, k)
		}
	}
	return c
}

// IsHot reports whether the pair is served from the store. The city check
// runs first and short-circuits; matching is substring based on both sides.
func (c *Classifier) IsHot(title, city string) bool {
	if !c.cityAllowed(normalise(city)) {
		return false
	}
	title = normalise(title)
	if title == "" {
		return false
	}
	if _, ok := c.exact[title]; ok {
		return true
	}
	if !c.useFuzzy {
		return false
	}
	for _, k := range c.fuzzy {
		if strings.Contains(title, k) {
			return true
		}
	}
	return false
}

func (c *Classifier) cityAllowed(city string) bool {
	if city == "" {
		return false
	}
	for _, allowed := range c.cities {
		if strings.Contains(city, allowed) {
			return true
		}
	}
	return false
}

func normalise(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
