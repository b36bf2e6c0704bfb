package phishingrod

import (
	"sort"
	"strings"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// Preset selects which techniques are applied
type Preset string

const (
	// PresetBaseline applies identity, leet, swap and patterns
	PresetBaseline Preset = "baseline"
	// PresetExtended adds single substitutions, vowel deletions and affixes
	PresetExtended Preset = "extended"
)

// Options of the variant generator
type Options struct {
	// Preset of techniques, defaults to PresetBaseline
	Preset Preset
	// Config holds technique parameters, if nil DefaultConfig is used
	Config *Config
}

// Technique derives variants from a single phrase
type Technique struct {
	Name  string
	Apply func(phrase string) []string
}

// Generator expands watchlist entries into lexical variants
type Generator struct {
	Options    *Options
	techniques []Technique
}

// NewGenerator creates and returns a generator for the given options
func NewGenerator(opts *Options) (*Generator, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Preset == "" {
		opts.Preset = PresetBaseline
	}
	if opts.Config == nil {
		cfg := DefaultConfig
		opts.Config = &cfg
	}
	if err := opts.Config.validate(); err != nil {
		return nil, err
	}
	g := &Generator{Options: opts}
	switch opts.Preset {
	case PresetBaseline:
		g.techniques = baselineTechniques(opts.Config)
	case PresetExtended:
		g.techniques = append(baselineTechniques(opts.Config), extendedTechniques(opts.Config)...)
	default:
		return nil, errorutil.NewWithTag("variants", "unknown preset %q (must be %q or %q)", opts.Preset, PresetBaseline, PresetExtended)
	}
	return g, nil
}

// Techniques returns the names of the enabled techniques in order
func (g *Generator) Techniques() []string {
	names := make([]string, 0, len(g.techniques))
	for _, t := range g.techniques {
		names = append(names, t.Name)
	}
	return names
}

// Variants returns the sorted, deduplicated variant set of one phrase
func (g *Generator) Variants(phrase string) []string {
	set := map[string]struct{}{}
	g.expand(phrase, set)
	return sortedSet(set)
}

// Generate returns the union of the variants of all phrases
func (g *Generator) Generate(phrases []string) []string {
	set := map[string]struct{}{}
	for _, phrase := range phrases {
		g.expand(phrase, set)
	}
	variants := sortedSet(set)
	gologger.Verbose().Msgf("generated %d variants from %d phrases using %v techniques", len(variants), len(phrases), g.Options.Preset)
	return variants
}

// EstimateCount returns the number of variants before deduplication
func (g *Generator) EstimateCount(phrases []string) int {
	counter := 0
	for _, phrase := range phrases {
		for _, t := range g.techniques {
			counter += len(t.Apply(phrase))
		}
	}
	return counter
}

func (g *Generator) expand(phrase string, set map[string]struct{}) {
	for _, t := range g.techniques {
		for _, v := range t.Apply(phrase) {
			if v == "" {
				continue
			}
			set[v] = struct{}{}
		}
	}
}

func baselineTechniques(cfg *Config) []Technique {
	leet := strings.NewReplacer(sortedPairs(cfg.Leet)...)
	swap := strings.NewReplacer(sortedPairs(cfg.Swap)...)
	patterns := append([]string{}, cfg.Patterns...)
	return []Technique{
		{Name: "identity", Apply: func(phrase string) []string {
			return []string{phrase}
		}},
		{Name: "leet", Apply: func(phrase string) []string {
			return []string{leet.Replace(phrase)}
		}},
		{Name: "swap", Apply: func(phrase string) []string {
			return []string{swap.Replace(phrase)}
		}},
		{Name: "patterns", Apply: func(phrase string) []string {
			return renderAll(patterns, phrase)
		}},
	}
}

func extendedTechniques(cfg *Config) []Technique {
	subs := sortedPairs(cfg.Substitutions)
	deletions := append([]string{}, cfg.Deletions...)
	affixes := append([]string{}, cfg.Affixes...)
	return []Technique{
		{Name: "substitution", Apply: func(phrase string) []string {
			out := make([]string, 0, len(subs)/2)
			for i := 0; i < len(subs); i += 2 {
				out = append(out, strings.ReplaceAll(phrase, subs[i], subs[i+1]))
			}
			return out
		}},
		{Name: "deletion", Apply: func(phrase string) []string {
			out := make([]string, 0, len(deletions))
			for _, d := range deletions {
				out = append(out, strings.ReplaceAll(phrase, d, ""))
			}
			return out
		}},
		{Name: "affix", Apply: func(phrase string) []string {
			return renderAll(affixes, phrase)
		}},
	}
}

func renderAll(templates []string, phrase string) []string {
	out := make([]string, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, Render(tpl, phrase))
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParsePreset maps the extended flag to a preset
func ParsePreset(extended bool) Preset {
	if extended {
		return PresetExtended
	}
	return PresetBaseline
}
