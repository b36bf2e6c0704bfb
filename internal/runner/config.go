package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod"
	fileutil "github.com/projectdiscovery/utils/file"
	"gopkg.in/yaml.v3"
)

// defaultVariantConfigPath returns the per-user variant config, versioned so
// that an upgrade does not keep stale technique tables around
func defaultVariantConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "phishingrod", fmt.Sprintf("variants_%v.yaml", version)), nil
}

// loadDefaultVariantConfig makes the per-user variant config the default,
// creating it from the embedded one on first use
func loadDefaultVariantConfig() {
	path, err := defaultVariantConfigPath()
	if err != nil {
		gologger.Verbose().Msgf("no home directory, using the embedded variant config: %v", err)
		return
	}
	if fileutil.FileExists(path) {
		// if it exists use that data as default
		if bin, err := os.ReadFile(path); err == nil {
			var cfg phishingrod.Config
			if errx := yaml.Unmarshal(bin, &cfg); errx == nil {
				phishingrod.DefaultConfig = cfg
				return
			}
		}
		gologger.Warning().Msgf("could not read %v, using the embedded variant config", path)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		gologger.Error().Msgf("failed to create %v got: %v", filepath.Dir(path), err)
		return
	}
	if err := os.WriteFile(path, phishingrod.DefaultVariantsBin, 0600); err != nil {
		gologger.Error().Msgf("failed to save default config to %v got: %v", path, err)
	}
}
