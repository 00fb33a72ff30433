// Package config provides the configuration of thym.
//
// Configuration is resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← THYM_*, highest priority
//	├─────────────────────────────┤
//	│  2. Project File            │  ← <project>/.thym.toml or .thym.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied by the caller on top of the result.
//
// # File Format
//
// TOML is the primary format; YAML is accepted for files ending in .yaml
// or .yml:
//
//	[project]
//	config_document = "config.xml"
//	plugins_dir = "plugins"
//
//	[install]
//	persist_exact_versions = true
//	search_paths = ["../shared-plugins"]
//
//	[platforms.ios]
//	project_dir = "platforms/ios"
//
//	[variables]
//	API_KEY = "secret"
//
//	[logging]
//	level = "debug"
//	format = "json"
//
// # Basic Usage
//
//	cfg, err := config.Load(projectRoot, "")
//	if err != nil {
//	    var perr *config.ParseError
//	    if errors.As(err, &perr) {
//	        fmt.Println(perr.Path, perr.Line)
//	    }
//	}
package config
