package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/testweave/pkg/enum"
	"github.com/praetorian-inc/testweave/pkg/prefilter"
)

// DefaultMaxFileSize skips files larger than 10 MiB.
const DefaultMaxFileSize = 10 << 20

// extractFormats are the accepted values of Config.Extract.
var extractFormats = []string{"pdf", "docx", "xlsx", "all"}

// Config is the per-workspace configuration read from .qa/testweave.yaml.
type Config struct {
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	Headings      []string `yaml:"headings"`
	MaxFileSize   int64    `yaml:"max_file_size"`
	IncludeHidden bool     `yaml:"include_hidden"`
	Extract       []string `yaml:"extract,omitempty"`
	Git           bool     `yaml:"git"`
	GitDepth      int      `yaml:"git_depth"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Include:     slices.Clone(enum.DefaultInclude),
		Exclude:     slices.Clone(enum.DefaultExclude),
		Headings:    slices.Clone(prefilter.DefaultKeywords),
		MaxFileSize: DefaultMaxFileSize,
		GitDepth:    enum.DefaultGitDepth,
	}
}

// LoadConfig reads the configuration of workspace ws. Keys absent from
// the file keep their defaults; a missing or empty file yields
// DefaultConfig. Unknown keys are rejected.
func LoadConfig(ws string) (Config, error) {
	cfg := DefaultConfig()
	path := ConfigPath(ws)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to the workspace, creating .qa as needed.
func SaveConfig(ws string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(Dir(ws), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", DirName, err)
	}
	if err := os.WriteFile(ConfigPath(ws), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks globs, extract formats and limits.
func (c Config) Validate() error {
	for _, p := range slices.Concat(c.Include, c.Exclude) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	for _, f := range c.Extract {
		if !slices.Contains(extractFormats, f) {
			return fmt.Errorf("unsupported extract format %q (want one of %v)", f, extractFormats)
		}
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative")
	}
	if c.GitDepth < 0 {
		return fmt.Errorf("git_depth must not be negative")
	}
	return nil
}

// EnumConfig translates the configuration into enumerator settings for
// workspace ws.
func (c Config) EnumConfig(ws string) enum.Config {
	return enum.Config{
		Root:          ws,
		Include:       c.Include,
		Exclude:       c.Exclude,
		IncludeHidden: c.IncludeHidden,
		MaxFileSize:   c.MaxFileSize,
		Extract:       c.Extract,
		GitDepth:      c.GitDepth,
	}
}
