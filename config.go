package phishingrod

import (
	_ "embed"
	"os"
	"sort"

	errorutil "github.com/projectdiscovery/utils/errors"
	"gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var DefaultVariantsBin []byte

// DefaultConfig is the technique configuration used when none is given
var DefaultConfig Config

func init() {
	if err := yaml.Unmarshal(DefaultVariantsBin, &DefaultConfig); err != nil {
		panic(err)
	}
}

// Config holds the parameters of every variant technique
type Config struct {
	// Leet is applied to all occurrences of all keys simultaneously
	Leet map[string]string `yaml:"leet"`
	// Swap replaces one character class with another
	Swap map[string]string `yaml:"swap"`
	// Patterns are baseline templates, ex: `www{{phrase}}`
	Patterns []string `yaml:"patterns"`
	// Substitutions are applied one key at a time (extended)
	Substitutions map[string]string `yaml:"substitutions"`
	// Deletions drop all occurrences of one character at a time (extended)
	Deletions []string `yaml:"deletions"`
	// Affixes are prefix/suffix templates (extended)
	Affixes []string `yaml:"affixes"`
}

// NewConfig reads technique config from file
func NewConfig(filePath string) (*Config, error) {
	bin, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(bin, &cfg); err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("invalid variant config %v", filePath)
	}
	return &cfg, nil
}

// GenerateSample writes the default technique configuration to filePath
func GenerateSample(filePath string) error {
	return os.WriteFile(filePath, DefaultVariantsBin, 0644)
}

// validate checks templates and that every substitution key is a single character
func (c *Config) validate() error {
	if err := validateTemplates(c.Patterns); err != nil {
		return err
	}
	if err := validateTemplates(c.Affixes); err != nil {
		return err
	}
	for _, m := range []map[string]string{c.Leet, c.Swap, c.Substitutions} {
		for k := range m {
			if len(k) != 1 {
				return errorutil.NewWithTag("variants", "substitution key %q must be a single character", k)
			}
		}
	}
	for _, d := range c.Deletions {
		if d == "" {
			return errorutil.NewWithTag("variants", "deletion must not be empty")
		}
	}
	return nil
}

// sortedPairs flattens m into old,new pairs in key order
func sortedPairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
