package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// EnvPrefix prefixes every environment variable thym reads.
const EnvPrefix = "THYM_"

// Environment variables applied on top of the file configuration.
const (
	EnvLogLevel       = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat      = EnvPrefix + "LOG_FORMAT"
	EnvPersist        = EnvPrefix + "PERSIST_VERSIONS"
	EnvConfigDocument = EnvPrefix + "CONFIG_DOCUMENT"
	EnvPluginsDir     = EnvPrefix + "PLUGINS_DIR"
	EnvSearchPaths    = EnvPrefix + "SEARCH_PATHS"
)

// LookupEnv is the environment lookup Load uses.
var LookupEnv = os.LookupEnv

// ApplyEnv overrides settings from the environment. Empty values are
// treated as set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvLogLevel:       &c.Logging.Level,
		EnvLogFormat:      &c.Logging.Format,
		EnvConfigDocument: &c.Project.ConfigDocument,
		EnvPluginsDir:     &c.Project.PluginsDir,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPersist); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvPersist, v, ErrInvalidValue)
		}
		c.Install.PersistExactVersions = b
	}
	if v, ok := lookup(EnvSearchPaths); ok {
		c.Install.SearchPaths = filepath.SplitList(v)
	}
	return nil
}
