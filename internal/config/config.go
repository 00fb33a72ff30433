package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/DSS32/thym/internal/project/vfs"
)

// FileNames are the project config files looked up, in order.
var FileNames = []string{".thym.toml", ".thym.yaml", ".thym.yml"}

// Logging levels and formats.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// Config is the resolved configuration.
type Config struct {
	Project   ProjectConfig             `toml:"project" yaml:"project"`
	Install   InstallConfig             `toml:"install" yaml:"install"`
	Platforms map[string]PlatformConfig `toml:"platforms" yaml:"platforms"`
	Variables map[string]string         `toml:"variables" yaml:"variables"`
	Logging   LoggingConfig             `toml:"logging" yaml:"logging"`

	// Path is the file the configuration was read from, empty when only
	// defaults and environment apply.
	Path string `toml:"-" yaml:"-"`
}

// ProjectConfig locates the project documents. Relative paths are
// resolved against the project root.
type ProjectConfig struct {
	// ConfigDocument is the config.xml plugins patch.
	ConfigDocument string `toml:"config_document" yaml:"config_document"`

	// PluginsDir holds the installed plugins.
	PluginsDir string `toml:"plugins_dir" yaml:"plugins_dir"`
}

// InstallConfig controls plugin installation.
type InstallConfig struct {
	// PersistExactVersions records installed versions in the config document.
	PersistExactVersions bool `toml:"persist_exact_versions" yaml:"persist_exact_versions"`

	// SearchPaths are searched for dependencies declared without a URL.
	SearchPaths []string `toml:"search_paths" yaml:"search_paths"`
}

// PlatformConfig overrides where a platform project lives.
type PlatformConfig struct {
	ProjectDir string `toml:"project_dir" yaml:"project_dir"`
}

// LoggingConfig selects the log output.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			ConfigDocument: "config.xml",
			PluginsDir:     "plugins",
		},
		Platforms: make(map[string]PlatformConfig),
		Variables: make(map[string]string),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration of the project at root. An explicit path
// must exist; otherwise the first of FileNames found in root is used, and
// none at all leaves the defaults. Environment overrides are applied last.
func Load(fsys vfs.VFS, root, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, name := range FileNames {
			if candidate := filepath.Join(root, name); fsys.IsRegular(candidate) {
				path = candidate
				break
			}
		}
	} else if !fsys.IsRegular(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}

	if path != "" {
		data, err := fsys.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := cfg.Decode(path, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays the file content data onto c. The format follows the
// extension of path. Unknown keys are rejected.
func (c *Config) Decode(path string, data []byte) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return tomlParseError(path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}
	c.Path = path
	return nil
}

func tomlParseError(path string, err error) error {
	perr := &ParseError{Path: path, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
	}
	var serr *toml.StrictMissingError
	if errors.As(err, &serr) && len(serr.Errors) > 0 {
		perr.Line, perr.Column = serr.Errors[0].Position()
		perr.Message = "unknown setting " + strings.Join(serr.Errors[0].Key(), ".")
	}
	return perr
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	if !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level %q: %w", c.Logging.Level, ErrInvalidValue)
	}
	if !slices.Contains(LogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format %q: %w", c.Logging.Format, ErrInvalidValue)
	}
	return nil
}

// PlatformDir returns the configured project folder of platformID, or ""
// when the default applies.
func (c *Config) PlatformDir(platformID string) string {
	return c.Platforms[platformID].ProjectDir
}
