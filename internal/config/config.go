package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"providerApiKey" envconfig:"PROVIDER_API_KEY"`
	Model     string `yaml:"providerModel" envconfig:"PROVIDER_MODEL"`
	ProjectID string `yaml:"providerProjectID" envconfig:"PROVIDER_PROJECT_ID"`
	Location  string `yaml:"providerLocation" envconfig:"PROVIDER_LOCATION"`

	NormalizeQuotes         bool `yaml:"normalizeQuotes" split_words:"true"`
	AllowPartialMatch       bool `yaml:"allowPartialMatch" split_words:"true"`
	UseModelFallback        bool `yaml:"useModelFallback" split_words:"true"`
	IncludeModelExplanation bool `yaml:"includeModelExplanation" split_words:"true"`

	ModelTimeoutSeconds int `yaml:"modelTimeoutSeconds" split_words:"true"`
	ModelConcurrency    int `yaml:"modelConcurrency" split_words:"true"`
	Workers             int `yaml:"workers"`

	Document    string `yaml:"document"`
	Findings    string `yaml:"findings"`
	FindingsDir string `yaml:"findingsDir" split_words:"true"`
	Output      string `yaml:"output"`

	LogLevel string `yaml:"logLevel" split_words:"true"`

	flags *pflag.FlagSet `ignored:"true"`
}

const envPrefix = "TEXTANCHOR"

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load => defaults < YAML < env < flags.
// configPath may be ""; if so we auto-discover.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/textanchor.yaml",
				"config/config.yaml",
				"./textanchor.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}

	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	// Minimal sanity
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ModelTimeoutSeconds <= 0 {
		return Specification{}, fmt.Errorf("model timeout must be positive, got %d", cfg.ModelTimeoutSeconds)
	}
	if cfg.ModelConcurrency <= 0 {
		return Specification{}, fmt.Errorf("model concurrency must be positive, got %d", cfg.ModelConcurrency)
	}
	return cfg, nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("provider", c.Provider, "Locator provider (e.g., stub, openai, gemini)")
	fs.String("provider-api-key", c.APIKey, "Provider API key")
	fs.String("provider-model", c.Model, "Provider model used for span location")
	fs.String("provider-project-id", c.ProjectID, "Provider project ID")
	fs.String("provider-location", c.Location, "Provider location/region")

	fs.Bool("normalize-quotes", c.NormalizeQuotes, "Normalize typographic quotes before fuzzy matching")
	fs.Bool("allow-partial-match", c.AllowPartialMatch, "Accept fuzzy spans covering a leading majority of terms")
	fs.Bool("use-model-fallback", c.UseModelFallback, "Consult the locator model when local search fails")
	fs.Bool("include-model-explanation", c.IncludeModelExplanation, "Ask the locator model for a short explanation")

	fs.Int("model-timeout-seconds", c.ModelTimeoutSeconds, "Per-call timeout for the locator model")
	fs.Int("model-concurrency", c.ModelConcurrency, "Maximum concurrent locator model calls")
	fs.Int("workers", c.Workers, "Batch resolution worker count")

	fs.String("document", c.Document, "Path to the document text file")
	fs.String("findings", c.Findings, "Path to a candidate findings JSON file")
	fs.String("findings-dir", c.FindingsDir, "Directory of candidate findings JSON files")
	fs.String("output", c.Output, "Path for located findings JSON (default stdout)")

	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")

	// Used later for usage/help
	// create a shallow copy of fs (so Usage can be called safely without mutating caller)
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("provider", &c.Provider)
	setStr("provider-api-key", &c.APIKey)
	setStr("provider-model", &c.Model)
	setStr("provider-project-id", &c.ProjectID)
	setStr("provider-location", &c.Location)

	setBool("normalize-quotes", &c.NormalizeQuotes)
	setBool("allow-partial-match", &c.AllowPartialMatch)
	setBool("use-model-fallback", &c.UseModelFallback)
	setBool("include-model-explanation", &c.IncludeModelExplanation)

	setInt("model-timeout-seconds", &c.ModelTimeoutSeconds)
	setInt("model-concurrency", &c.ModelConcurrency)
	setInt("workers", &c.Workers)

	setStr("document", &c.Document)
	setStr("findings", &c.Findings)
	setStr("findings-dir", &c.FindingsDir)
	setStr("output", &c.Output)

	setStr("log-level", &c.LogLevel)
}

func setDefaults(c *Specification) {
	c.LogLevel = "info"
	c.Provider = "stub"
	c.Location = "us-central1"
	c.NormalizeQuotes = true
	c.UseModelFallback = false
	c.ModelTimeoutSeconds = 30
	c.ModelConcurrency = 4
	c.Workers = 8
}
