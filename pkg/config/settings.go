package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up in the working directory.
	DefaultFileName = "synopsis.yaml"

	DefaultSummaryTemplate = "--- Start of backstory ---\n{{.backstory}}\n--- End of backstory ---\n\n"
	DefaultPromptTemplate  = "--- Start of text section ---\n{{.text}}\n--- End of text section ---\n\n" +
		"Summary format: english, 3-5 sentences, ignoring section titles and backstory\n" +
		"Summary of text section:\n"
)

var (
	// envPattern matches ${VAR} and ${VAR:-default} expressions.
	envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

	validProviders = []string{"ollama", "openai", "anthropic", "genai", "lmstudio"}
	validStrengths = []string{"none", "weak", "strong"}
)

// Settings is the read-only configuration of one run.
type Settings struct {
	Provider             string          `yaml:"provider"`
	ModelName            string          `yaml:"model_name"`
	ModelTokenLimit      int             `yaml:"model_token_limit"`
	ContextRatio         float64         `yaml:"context_ratio"`
	ReasonableTextLength int             `yaml:"reasonable_text_length"`
	BackstoryStrength    string          `yaml:"backstory_strength"`
	ResponseSeparator    string          `yaml:"response_separator"`
	MaxRounds            int             `yaml:"max_rounds"`
	CallTimeout          time.Duration   `yaml:"call_timeout"`
	Tokenizer            string          `yaml:"tokenizer"`
	SummaryTemplate      string          `yaml:"summary_template"`
	PromptTemplate       string          `yaml:"prompt_template"`
	OutputFilenames      OutputFilenames `yaml:"output_filenames"`
	Journal              string          `yaml:"journal"`
	Generation           Generation      `yaml:"generation"`
}

// OutputFilenames are templates over {{.base}}, the input name without its
// extension.
type OutputFilenames struct {
	Detailed string `yaml:"detailed"`
	Short    string `yaml:"short"`
}

// Generation holds oracle sampling options passed through untouched.
// NumCtx of 0 means the model token limit.
type Generation struct {
	Temperature *float64       `yaml:"temperature"`
	TopP        *float64       `yaml:"top_p"`
	TopK        int            `yaml:"top_k"`
	NumPredict  int            `yaml:"num_predict"`
	NumCtx      int            `yaml:"num_ctx"`
	Extra       map[string]any `yaml:"extra"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() *Settings {
	temperature, topP := 0.0, 0.5
	return &Settings{
		Provider:             "ollama",
		ModelName:            "mistral",
		ModelTokenLimit:      4096,
		ContextRatio:         0.5,
		ReasonableTextLength: 2000,
		BackstoryStrength:    "weak",
		ResponseSeparator:    `\n\n`,
		MaxRounds:            10,
		Tokenizer:            "cl100k_base",
		SummaryTemplate:      DefaultSummaryTemplate,
		PromptTemplate:       DefaultPromptTemplate,
		OutputFilenames: OutputFilenames{
			Detailed: "{{.base}}-detailed.txt",
			Short:    "{{.base}}-short.txt",
		},
		Generation: Generation{
			Temperature: &temperature,
			TopP:        &topP,
			TopK:        20,
			NumPredict:  512,
		},
	}
}

// LoadDotEnv loads .env from the working directory if present.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: loading .env: %w", err)
	}
	return nil
}

// ResolvePath returns the settings file to read. An explicit path wins;
// otherwise ./synopsis.yaml, then ~/.synopsis/config.yaml. It returns ""
// when no candidate exists.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return homedir.Expand(explicit)
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", nil
	}
	candidate := filepath.Join(home, ".synopsis", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

// Load builds Settings from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, then validates the result.
func Load(path string, manager Manager) (*Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		expanded, err := expandEnv(raw)
		if err != nil {
			return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
		}
		if err := yaml.Unmarshal(expanded, settings); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if manager != nil {
		settings.applyEnv(manager)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Settings) applyEnv(m Manager) {
	s.Provider = m.GetStringWithDefault("SYNOPSIS_PROVIDER", s.Provider)
	s.ModelName = m.GetStringWithDefault("SYNOPSIS_MODEL_NAME", s.ModelName)
	s.ModelTokenLimit = m.GetIntWithDefault("SYNOPSIS_MODEL_TOKEN_LIMIT", s.ModelTokenLimit)
	s.ContextRatio = m.GetFloatWithDefault("SYNOPSIS_CONTEXT_RATIO", s.ContextRatio)
	s.ReasonableTextLength = m.GetIntWithDefault("SYNOPSIS_REASONABLE_TEXT_LENGTH", s.ReasonableTextLength)
	s.BackstoryStrength = m.GetStringWithDefault("SYNOPSIS_BACKSTORY_STRENGTH", s.BackstoryStrength)
	s.ResponseSeparator = m.GetStringWithDefault("SYNOPSIS_RESPONSE_SEPARATOR", s.ResponseSeparator)
	s.MaxRounds = m.GetIntWithDefault("SYNOPSIS_MAX_ROUNDS", s.MaxRounds)
	s.CallTimeout = m.GetDurationWithDefault("SYNOPSIS_CALL_TIMEOUT", s.CallTimeout)
	s.Tokenizer = m.GetStringWithDefault("SYNOPSIS_TOKENIZER", s.Tokenizer)
	s.Journal = m.GetStringWithDefault("SYNOPSIS_JOURNAL", s.Journal)
}

// Validate rejects settings the condensation engine cannot run with.
func (s *Settings) Validate() error {
	var errs []error
	if s.ModelTokenLimit <= 0 {
		errs = append(errs, fmt.Errorf("model_token_limit must be positive, got %d", s.ModelTokenLimit))
	}
	if s.ContextRatio <= 0 || s.ContextRatio > 1 {
		errs = append(errs, fmt.Errorf("context_ratio must be in (0, 1], got %g", s.ContextRatio))
	}
	if s.ReasonableTextLength <= 0 {
		errs = append(errs, fmt.Errorf("reasonable_text_length must be positive, got %d", s.ReasonableTextLength))
	}
	if s.MaxRounds < 0 {
		errs = append(errs, fmt.Errorf("max_rounds must not be negative, got %d", s.MaxRounds))
	}
	if !slices.Contains(validStrengths, s.BackstoryStrength) {
		errs = append(errs, fmt.Errorf("backstory_strength must be one of %s, got %q",
			strings.Join(validStrengths, ", "), s.BackstoryStrength))
	}
	if !slices.Contains(validProviders, s.Provider) {
		errs = append(errs, fmt.Errorf("provider must be one of %s, got %q",
			strings.Join(validProviders, ", "), s.Provider))
	}
	if strings.TrimSpace(s.PromptTemplate) == "" {
		errs = append(errs, errors.New("prompt_template must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid settings: %w", err)
	}
	return nil
}

// Separator returns ResponseSeparator with literal \n escapes turned into
// newlines.
func (s *Settings) Separator() string {
	return strings.ReplaceAll(s.ResponseSeparator, `\n`, "\n")
}

// ContextWindow returns the num_ctx passed to the oracle.
func (s *Settings) ContextWindow() int {
	if s.Generation.NumCtx > 0 {
		return s.Generation.NumCtx
	}
	return s.ModelTokenLimit
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if hasDefault {
			return subs[2]
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}
