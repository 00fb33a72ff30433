package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/DSS32/thym/internal/config"
	"github.com/DSS32/thym/internal/log"
	"github.com/DSS32/thym/internal/plugin/platform"
	"github.com/DSS32/thym/internal/project"
	"github.com/DSS32/thym/internal/project/vfs"
)

// app is the state shared by all commands of one invocation.
type app struct {
	projectDir string
	configPath string
	yes        bool

	cfg *config.Config
	mgr *project.Manager
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "thym",
		Short:         "Install plugins into hybrid mobile application projects",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.projectDir, "project", "p", ".", "project folder")
	flags.StringVar(&a.configPath, "config", "", "configuration file (default <project>/.thym.toml)")
	flags.BoolVarP(&a.yes, "yes", "y", false, "overwrite existing files without asking")
	log.RegisterFlags(flags)

	root.AddCommand(
		newInstallCommand(a),
		newUninstallCommand(a),
		newListCommand(a),
		newPrepareCommand(a),
		newModulesCommand(a),
		newRestorableCommand(a),
		newWatchCommand(a),
	)
	return root
}

// setup loads the configuration, installs the logger into the command
// context and builds the project manager.
func (a *app) setup(cmd *cobra.Command) error {
	fsys := vfs.NewOSFS()

	dir, err := filepath.Abs(a.projectDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(fsys, dir, a.configPath)
	if err != nil {
		return err
	}
	logger, err := log.ForCommand(cmd, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("could not create logger: %w", err)
	}
	cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))
	if cfg.Path != "" {
		logger.Debug("configuration loaded", "path", cfg.Path)
	}

	opts := []project.Option{
		project.WithConfigDocument(cfg.Project.ConfigDocument),
		project.WithPluginsDir(cfg.Project.PluginsDir),
	}
	for _, id := range platform.IDs() {
		opts = append(opts, project.WithPlatformDir(id, cfg.PlatformDir(id)))
	}
	p := project.New(dir, opts...)

	searchPaths := make([]string, 0, len(cfg.Install.SearchPaths))
	for _, sp := range cfg.Install.SearchPaths {
		if !filepath.IsAbs(sp) {
			sp = filepath.Join(dir, sp)
		}
		searchPaths = append(searchPaths, sp)
	}

	a.cfg = cfg
	a.mgr = project.NewManager(p, fsys,
		project.WithPersistVersions(cfg.Install.PersistExactVersions),
		project.WithSearchPaths(searchPaths...),
		project.WithVariables(cfg.Variables),
	)
	return nil
}
