package phishingrod

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaselineVariants(t *testing.T) {
	g, err := NewGenerator(&Options{})
	require.Nil(t, err)
	require.Equal(t, []string{"identity", "leet", "swap", "patterns"}, g.Techniques())

	// no i/l swap applies so the swap collapses into the identity
	require.Equal(t, []string{"3x4mp13", "example", "wwwexample"}, g.Variants("example"))

	require.ElementsMatch(t, []string{"mail", "m4i1", "mall", "wwwmail"}, g.Variants("mail"))
}

func TestBaselineIsDeterministic(t *testing.T) {
	g, err := NewGenerator(&Options{Preset: PresetBaseline})
	require.Nil(t, err)
	for _, phrase := range []string{"example", "paypal", "i", "a", "microsoft"} {
		first := g.Variants(phrase)
		require.Equal(t, first, g.Variants(phrase))

		other, err := NewGenerator(&Options{Preset: PresetBaseline})
		require.Nil(t, err)
		require.Equal(t, first, other.Variants(phrase))
	}
}

func TestExtendedVariants(t *testing.T) {
	g, err := NewGenerator(&Options{Preset: PresetExtended})
	require.Nil(t, err)

	got := g.Variants("paypal")
	expected := []string{
		// baseline
		"paypal", "p4yp41", "wwwpaypal",
		// single substitutions (only `a` is present)
		"p4yp4l",
		// vowel deletion
		"pypl",
		// affixes
		"paypalz", "paypalie", "paypals", "paypalcouk", "paypal1",
		"paypalorg", "paypalcom", "paypalco", "paypal-",
	}
	require.ElementsMatch(t, expected, got)

	for _, v := range got {
		require.NotEmpty(t, v)
	}
}

func TestExtendedSingleSubstitutionsAreIndependent(t *testing.T) {
	g, err := NewGenerator(&Options{Preset: PresetExtended})
	require.Nil(t, err)
	got := g.Variants("seo")
	require.Contains(t, got, "5eo")
	require.Contains(t, got, "s3o")
	require.Contains(t, got, "se0")
	require.Contains(t, got, "530", "combined substitution comes from the leet technique")
	require.Contains(t, got, "so")
	require.Contains(t, got, "se")
}

func TestVariantsOfShortInputs(t *testing.T) {
	g, err := NewGenerator(&Options{Preset: PresetExtended})
	require.Nil(t, err)
	// deleting the only vowel yields an empty string which is dropped
	got := g.Variants("a")
	require.NotContains(t, got, "")
	require.Contains(t, got, "a")
	require.Contains(t, got, "4")
}

func TestGenerateUnion(t *testing.T) {
	g, err := NewGenerator(nil)
	require.Nil(t, err)
	got := g.Generate([]string{"example", "example", "mail"})
	require.Equal(t, []string{"3x4mp13", "example", "m4i1", "mail", "mall", "wwwexample", "wwwmail"}, got)
	require.Equal(t, 8, g.EstimateCount([]string{"example", "mail"}))
}

func TestGeneratorConfig(t *testing.T) {
	cfg := &Config{
		Leet:     map[string]string{"i": "1"},
		Patterns: []string{"{{phrase}}-login"},
	}
	g, err := NewGenerator(&Options{Config: cfg})
	require.Nil(t, err)
	require.ElementsMatch(t, []string{"bing", "b1ng", "bing-login"}, g.Variants("bing"))

	_, err = NewGenerator(&Options{Config: &Config{Patterns: []string{"www"}}})
	require.Error(t, err)

	_, err = NewGenerator(&Options{Config: &Config{Affixes: []string{"{{word}}z"}}})
	require.Error(t, err)

	_, err = NewGenerator(&Options{Config: &Config{Leet: map[string]string{"ab": "4"}}})
	require.Error(t, err)

	_, err = NewGenerator(&Options{Preset: "fancy"})
	require.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.Nil(t, GenerateSample(path))
	cfg, err := NewConfig(path)
	require.Nil(t, err)
	require.Equal(t, DefaultConfig, *cfg)
	require.Equal(t, "1", cfg.Leet["l"])
	require.Len(t, cfg.Affixes, 10)

	require.Nil(t, os.WriteFile(path, []byte("leet: [broken"), 0644))
	_, err = NewConfig(path)
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	require.Equal(t, "wwwexample", Render("www{{phrase}}", "example"))
	require.Equal(t, "example-", Render("{{phrase}}-", "example"))
	require.True(t, strings.HasPrefix(Render("{{phrase}}couk", "x"), "x"))
}
