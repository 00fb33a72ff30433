package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"gopkg.in/yaml.v3"

	"github.com/DSS32/thym/internal/plugin"
	"github.com/DSS32/thym/internal/plugin/action"
	"github.com/DSS32/thym/internal/plugin/fetch"
)

func newInstallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <dir|uri>...",
		Short: "Install plugins from local folders or git URIs",
		Long: `Install plugins into the project.

A source is a local plugin folder or a git URI of the form
repository[#commit[:subdir]], e.g.

  thym install https://github.com/example/plugin.git#v1.2.0:src`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			policy := a.overwritePolicy(cmd)
			for _, src := range args {
				if !fetch.IsRemote(src) {
					abs, err := filepath.Abs(src)
					if err != nil {
						return err
					}
					src = abs
				}
				if err := a.mgr.Install(ctx, src, policy); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newUninstallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <id>...",
		Short: "Remove plugins from the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := a.mgr.Uninstall(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plugins := a.mgr.List(cmd.Context())
			if err := a.mgr.Registry().Errors(); err != nil {
				slogcontext.FromCtx(cmd.Context()).Warn("some plugins could not be read", "error", err)
			}
			data, err := encodePlugins(plugins, output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

type pluginView struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	Platforms []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

func encodePlugins(plugins []*plugin.Plugin, format string) ([]byte, error) {
	views := make([]pluginView, 0, len(plugins))
	for _, p := range plugins {
		views = append(views, pluginView{ID: p.ID, Name: p.Name, Version: p.Version, Platforms: p.Platforms})
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(views)
	case "table":
		var buf bytes.Buffer
		t := table.NewWriter()
		t.SetOutputMirror(&buf)
		t.AppendHeader(table.Row{"ID", "Name", "Version", "Platforms"})
		for _, v := range views {
			t.AppendRow(table.Row{v.ID, v.Name, v.Version, strings.Join(v.Platforms, ", ")})
		}
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func newPrepareCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare [platform]...",
		Short: "Copy installed plugins into platform projects",
		Long: `Materialize every installed plugin into the given platform projects and
regenerate their module lists. Without arguments every platform whose
project folder exists is prepared.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mgr.CompleteAll(cmd.Context(), a.overwritePolicy(cmd), args...)
		},
	}
}

func newModulesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "modules <platform>",
		Short: "Print the JavaScript module list of a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := a.mgr.ModuleListContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), content+"\n")
			return err
		},
	}
}

func newRestorableCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restorable",
		Short: "List plugins recorded in config.xml that are not installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			features, err := a.mgr.RestorablePlugins(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, f := range features {
				if f.Version != "" {
					fmt.Fprintf(w, "%s@%s\n", f.ID, f.Version)
					continue
				}
				fmt.Fprintln(w, f.ID)
			}
			return nil
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	var prepare bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the plugins folder and refresh on changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := slogcontext.FromCtx(ctx)
			policy := a.overwritePolicy(cmd)
			logger.Info("watching plugins", "dir", a.mgr.Registry().Dir())

			return a.mgr.Registry().Watch(ctx, plugin.WatchOptions{
				OnInvalidate: func() {
					logger.Info("plugins changed", "installed", len(a.mgr.List(ctx)))
					if !prepare {
						return
					}
					if err := a.mgr.CompleteAll(ctx, policy); err != nil {
						logger.Error("prepare failed", "error", err)
					}
				},
			})
		},
	}
	cmd.Flags().BoolVar(&prepare, "prepare", false, "prepare all platforms after each change")
	return cmd
}

// overwritePolicy asks on stdin before existing files are replaced unless
// --yes was given.
func (a *app) overwritePolicy(cmd *cobra.Command) action.OverwritePolicy {
	if a.yes {
		return action.AlwaysOverwrite
	}
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()
	return action.OverwriteFunc(func(_ context.Context, files []string) bool {
		fmt.Fprintf(out, "The following files will be overwritten:\n")
		for _, f := range files {
			fmt.Fprintf(out, "  %s\n", f)
		}
		fmt.Fprint(out, "Continue? [y/N] ")
		answer, _ := in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}
