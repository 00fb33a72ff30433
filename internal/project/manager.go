package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"ocm.software/open-component-model/bindings/go/dag"

	"github.com/DSS32/thym/internal/plugin"
	"github.com/DSS32/thym/internal/plugin/action"
	"github.com/DSS32/thym/internal/plugin/configxml"
	"github.com/DSS32/thym/internal/plugin/fetch"
	"github.com/DSS32/thym/internal/plugin/modulelist"
	"github.com/DSS32/thym/internal/plugin/plan"
	"github.com/DSS32/thym/internal/plugin/platform"
	"github.com/DSS32/thym/internal/plugin/variables"
	"github.com/DSS32/thym/internal/project/vfs"
)

// Fetcher retrieves remote plugins.
type Fetcher interface {
	Fetch(ctx context.Context, src fetch.Source) (*fetch.Checkout, error)
}

// Manager installs, removes and materializes the plugins of one project.
// Mutating operations are serialized. Manager is safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	fsys     vfs.VFS
	project  *Project
	registry *plugin.Registry
	executor *action.Executor
	batch    *batcher
	fetcher  Fetcher

	searchPaths     []string
	persistVersions bool
	vars            map[string]string
	env             func(string) (string, bool)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFetcher sets the fetcher used for remote sources.
func WithFetcher(f Fetcher) ManagerOption {
	return func(m *Manager) {
		m.fetcher = f
	}
}

// WithSearchPaths sets the folders searched for dependencies declared
// without a URL. A dependency id is found at <path>/<id>/plugin.xml.
func WithSearchPaths(paths ...string) ManagerOption {
	return func(m *Manager) {
		m.searchPaths = append(m.searchPaths, paths...)
	}
}

// WithPersistVersions records plugin versions in the config document.
func WithPersistVersions(persist bool) ManagerOption {
	return func(m *Manager) {
		m.persistVersions = persist
	}
}

// WithVariables sets the values substituted into config patches.
func WithVariables(vars map[string]string) ManagerOption {
	return func(m *Manager) {
		for k, v := range vars {
			m.vars[k] = v
		}
	}
}

// WithEnv sets the environment lookup used for variables; nil disables it.
func WithEnv(lookup func(string) (string, bool)) ManagerOption {
	return func(m *Manager) {
		m.env = lookup
	}
}

// NewManager creates a manager for project p.
func NewManager(p *Project, fsys vfs.VFS, opts ...ManagerOption) *Manager {
	m := &Manager{
		fsys:     fsys,
		project:  p,
		registry: plugin.NewRegistry(fsys, p.PluginsDir),
		fetcher:  fetch.NewFetcher(),
		vars:     make(map[string]string),
		env:      os.LookupEnv,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.batch = &batcher{done: m.registry.Invalidate}
	m.executor = action.NewExecutor(fsys, action.WithBatcher(m.batch))
	return m
}

// Project returns the managed project.
func (m *Manager) Project() *Project {
	return m.project
}

// Registry returns the registry of installed plugins.
func (m *Manager) Registry() *plugin.Registry {
	return m.registry
}

// List returns the installed plugins.
func (m *Manager) List(ctx context.Context) []*plugin.Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.List(ctx)
}

// IsInstalled reports whether plugin id is installed.
func (m *Manager) IsInstalled(id string) bool {
	return m.registry.IsInstalled(id)
}

// Install installs the plugin at source, a local plugin folder or a git
// URI of the form repository[#commit[:subdir]]. Declared dependencies are
// installed first-come as the attach plan runs. A cancelled install
// returns nil.
func (m *Manager) Install(ctx context.Context, source string, overwrite action.OverwritePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return nil
	}
	ctx = withInstallState(ctx, overwrite)
	return m.install(ctx, source)
}

// InstallFromDirectory installs the plugin whose manifest is in dir.
func (m *Manager) InstallFromDirectory(ctx context.Context, dir string, overwrite action.OverwritePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return nil
	}
	ctx = withInstallState(ctx, overwrite)
	return m.installFromDirectory(ctx, dir)
}

func (m *Manager) install(ctx context.Context, source string) error {
	if !fetch.IsRemote(source) {
		return m.installFromDirectory(ctx, source)
	}

	src, err := fetch.ParseURI(source)
	if err != nil {
		return err
	}
	co, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			slogcontext.FromCtx(ctx).Info("install cancelled", "uri", source)
			return nil
		}
		return err
	}
	defer func() {
		if cerr := co.Close(); cerr != nil {
			slogcontext.FromCtx(ctx).Warn("cannot remove temporary clone", "dir", co.Root, "error", cerr)
		}
	}()
	return m.installFromDirectory(ctx, co.Dir)
}

func (m *Manager) installFromDirectory(ctx context.Context, dir string) error {
	manifest, err := plugin.ParseManifestFromDir(m.fsys, dir)
	if err != nil {
		return err
	}
	id := manifest.ID()

	logger := slogcontext.FromCtx(ctx).With("plugin", id)
	ctx = slogcontext.NewCtx(ctx, logger)

	st := installStateFrom(ctx)
	if err := st.visit(id); err != nil {
		return err
	}
	if m.registry.IsInstalled(id) {
		logger.Info("plugin already installed, reinstalling")
	}

	actions, err := m.planner(ctx).PlanAttach(ctx, manifest, dir, m.registry.Dir())
	if err != nil {
		return err
	}

	logger.Info("installing plugin", "source", dir, "actions", len(actions))
	err = m.executor.Run(withParent(ctx, id), actions, false, st.overwrite)
	m.registry.Invalidate()
	return err
}

// InstallDependency installs dependency id of the plugin being installed.
// It fails with ErrDependencyCycle when id already depends on that plugin.
// Installed dependencies are left alone. Without a uri the search paths
// are consulted.
func (m *Manager) InstallDependency(ctx context.Context, id, uri string) error {
	st := installStateFrom(ctx)
	if parent := parentFrom(ctx); parent != "" {
		if err := st.link(parent, id); err != nil {
			return err
		}
	}

	logger := slogcontext.FromCtx(ctx).With("dependency", id)
	if m.registry.IsInstalled(id) {
		logger.Debug("dependency already installed")
		return nil
	}

	if uri != "" {
		logger.Info("installing dependency", "uri", uri)
		return m.install(ctx, uri)
	}
	for _, path := range m.searchPaths {
		dir := filepath.Join(path, id)
		if m.fsys.IsRegular(filepath.Join(dir, plugin.ManifestFileName)) {
			logger.Info("installing dependency", "dir", dir)
			return m.installFromDirectory(ctx, dir)
		}
	}
	return fmt.Errorf("%s: %w", id, ErrDependencyNotFound)
}

// Uninstall detaches plugin id from the project: its folder is removed,
// config document patches are reverted and its record is dropped.
// Dependencies and files already copied into platform projects stay.
func (m *Manager) Uninstall(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return nil
	}

	home, err := m.registry.Home(id)
	if err != nil {
		return err
	}
	manifest, err := plugin.ParseManifestFromDir(m.fsys, home)
	if err != nil {
		return err
	}

	ctx = slogcontext.NewCtx(ctx, slogcontext.FromCtx(ctx).With("plugin", id))
	actions, err := m.planner(ctx).PlanAttach(ctx, manifest, home, m.registry.Dir())
	if err != nil {
		return err
	}

	slogcontext.FromCtx(ctx).Info("uninstalling plugin", "actions", len(actions))
	err = m.executor.Run(ctx, actions, true, action.AlwaysOverwrite)
	m.registry.Invalidate()
	return err
}

// CompletePlatform materializes every installed plugin into the project
// of platformID and regenerates its module list. overwrite is asked before
// platform files with different content are replaced.
func (m *Manager) CompletePlatform(ctx context.Context, platformID string, overwrite action.OverwritePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completePlatform(ctx, platformID, overwrite)
}

// CompleteAll completes each platform in turn. Without platform ids it
// completes every registered platform whose project folder exists.
// Cancellation is checked before each platform.
func (m *Manager) CompleteAll(ctx context.Context, overwrite action.OverwritePolicy, platformIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(platformIDs) == 0 {
		for _, id := range platform.IDs() {
			if m.fsys.IsDir(m.project.PlatformDir(id)) {
				platformIDs = append(platformIDs, id)
			}
		}
	}
	for _, id := range platformIDs {
		if ctx.Err() != nil {
			return nil
		}
		if err := m.completePlatform(ctx, id, overwrite); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}

func (m *Manager) completePlatform(ctx context.Context, platformID string, overwrite action.OverwritePolicy) error {
	if ctx.Err() != nil {
		return nil
	}
	layout, ok := platform.Lookup(platformID)
	if !ok {
		return fmt.Errorf("%s: %w", platformID, ErrUnknownPlatform)
	}

	ctx = slogcontext.NewCtx(ctx, slogcontext.FromCtx(ctx).With("platform", platformID))
	planner := m.planner(ctx)
	platformDir := m.project.PlatformDir(platformID)
	appName := m.widget().Name

	return m.batch.Batch(ctx, func(ctx context.Context) error {
		installed := m.registry.List(ctx)
		var supported bool
		for _, p := range installed {
			if ctx.Err() != nil {
				return nil
			}
			manifest, err := plugin.ParseManifestFromDir(m.fsys, p.Dir)
			if err != nil {
				return err
			}
			supported = supported || p.SupportsPlatform(platformID)

			factory := platform.NewFactory(layout, p.Dir, platformDir, platform.WithAppName(appName))
			actions, err := planner.PlanPlatformCompletion(ctx, manifest, platformID, factory, installed)
			if err != nil {
				return err
			}
			if err := m.executor.Run(ctx, actions, false, overwrite); err != nil {
				return fmt.Errorf("%s: %w", p.ID, err)
			}
		}
		if supported {
			return nil
		}
		// No plugin rewrote the module list; refresh what earlier runs left.
		factory := platform.NewFactory(layout, "", platformDir, platform.WithAppName(appName))
		content, err := modulelist.Build(installed, platformID)
		if err != nil {
			return err
		}
		list := factory.ModuleListAction(content)
		return m.executor.Run(ctx, []action.Action{list}, false, overwrite)
	})
}

// ModuleListContent returns the module list platformID would get from the
// currently installed plugins.
func (m *Manager) ModuleListContent(ctx context.Context, platformID string) (string, error) {
	return modulelist.Build(m.List(ctx), platformID)
}

// RestorablePlugins returns the plugins recorded in the config document
// that are not installed.
func (m *Manager) RestorablePlugins(ctx context.Context) ([]configxml.Feature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := configxml.Load(m.fsys, m.project.ConfigDocument)
	if err != nil {
		return nil, err
	}
	var out []configxml.Feature
	for _, f := range doc.Features() {
		if !m.registry.IsInstalled(f.ID) {
			out = append(out, f)
		}
	}
	slogcontext.FromCtx(ctx).Debug("restorable plugins", "count", len(out))
	return out, nil
}

func (m *Manager) planner(ctx context.Context) *plan.Planner {
	vars := variables.New(variables.WithEnv(m.env), variables.WithVars(m.vars))
	w := m.widget()
	if w.ID != "" {
		vars.SetDefault("PACKAGE_NAME", w.ID)
	}
	if w.Name != "" {
		vars.SetDefault("APP_NAME", w.Name)
	}
	slogcontext.FromCtx(ctx).Debug("planning", "config", m.project.ConfigDocument, "app", w.Name)

	return &plan.Planner{
		Platforms:       platform.IDs(),
		ConfigDocument:  m.project.ConfigDocument,
		Variables:       vars,
		PersistVersions: m.persistVersions,
		Dependencies:    m,
	}
}

func (m *Manager) widget() configxml.Widget {
	doc, err := configxml.Load(m.fsys, m.project.ConfigDocument)
	if err != nil {
		return configxml.Widget{}
	}
	return doc.Widget()
}

// installState follows one top level install through its dependencies.
type installState struct {
	graph     *dag.DirectedAcyclicGraph[string]
	overwrite action.OverwritePolicy
}

type stateKey struct{}

type parentKey struct{}

func withInstallState(ctx context.Context, overwrite action.OverwritePolicy) context.Context {
	return context.WithValue(ctx, stateKey{}, &installState{
		graph:     dag.NewDirectedAcyclicGraph[string](),
		overwrite: overwrite,
	})
}

// installStateFrom returns the state of the running install, or a fresh
// one for dependency installs started outside Install.
func installStateFrom(ctx context.Context) *installState {
	if st, ok := ctx.Value(stateKey{}).(*installState); ok {
		return st
	}
	return &installState{graph: dag.NewDirectedAcyclicGraph[string]()}
}

func withParent(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, parentKey{}, id)
}

func parentFrom(ctx context.Context) string {
	id, _ := ctx.Value(parentKey{}).(string)
	return id
}

func (s *installState) visit(id string) error {
	if _, ok := s.graph.GetVertex(id); ok {
		return nil
	}
	return s.graph.AddVertex(id)
}

// link records that from depends on to.
func (s *installState) link(from, to string) error {
	if from == to {
		return &CycleError{Cycle: []string{from, to}}
	}
	if err := s.visit(from); err != nil {
		return err
	}
	if err := s.visit(to); err != nil {
		return err
	}
	if back := s.path(to, from); back != nil {
		return &CycleError{Cycle: append([]string{from}, back...)}
	}
	if err := s.graph.AddEdge(from, to); err != nil {
		var cerr *dag.CycleError
		if errors.As(err, &cerr) {
			return &CycleError{Cycle: cerr.Cycle}
		}
		return err
	}
	return nil
}

// path returns the dependency chain leading from one plugin to another,
// both ends included, or nil when to is not reachable from from.
func (s *installState) path(from, to string) []string {
	seen := map[string]bool{}
	var walk func(id string) []string
	walk = func(id string) []string {
		if id == to {
			return []string{id}
		}
		if seen[id] {
			return nil
		}
		seen[id] = true
		v, ok := s.graph.GetVertex(id)
		if !ok {
			return nil
		}
		var next []string
		v.Edges.Range(func(key, _ any) bool {
			if n, ok := key.(string); ok {
				next = append(next, n)
			}
			return true
		})
		slices.Sort(next)
		for _, n := range next {
			if rest := walk(n); rest != nil {
				return append([]string{id}, rest...)
			}
		}
		return nil
	}
	return walk(from)
}
