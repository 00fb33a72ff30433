// Package plan turns plugin manifests into ordered action lists.
//
// Planning is pure: it reads the manifest and produces actions without
// touching the project tree. Two phases exist. Attach copies the plugin
// into the project, installs its dependencies, patches the config document
// and records the plugin. Platform completion materializes the plugin into
// one platform project through an action.Factory and regenerates the
// platform's module list.
package plan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/DSS32/thym/internal/plugin"
	"github.com/DSS32/thym/internal/plugin/action"
	"github.com/DSS32/thym/internal/plugin/configxml"
	"github.com/DSS32/thym/internal/plugin/fetch"
	"github.com/DSS32/thym/internal/plugin/modulelist"
	"github.com/DSS32/thym/internal/plugin/variables"
)

// ErrMissingName is returned when a manifest has no <name> element.
var ErrMissingName = errors.New("plugin.xml: name is required")

// Planner plans installs for one project.
type Planner struct {
	// Platforms are the platform blocks considered during attach.
	Platforms []string

	// ConfigDocument is the absolute path of the project's config document.
	ConfigDocument string

	// ConfigFileName routes <config-file> declarations: targets ending in it
	// patch ConfigDocument, all others go to the platform factory.
	// Defaults to configxml.FileName.
	ConfigFileName string

	// Variables substitutes $NAME references in patch bodies. May be nil.
	Variables *variables.Resolver

	// PersistVersions records the plugin version in the config document.
	PersistVersions bool

	// Dependencies installs <dependency> declarations.
	Dependencies action.DependencyInstaller
}

// PlanAttach plans attaching the plugin in sourceDir to the project: the
// tree is copied to destDir/<id>, then for the root block and each known
// platform block dependencies are installed and the config document is
// patched, and finally the plugin is recorded.
func (p *Planner) PlanAttach(ctx context.Context, m *plugin.Manifest, sourceDir, destDir string) ([]action.Action, error) {
	name, ok := m.Name()
	if !ok {
		return nil, fmt.Errorf("%s: %w", m.ID(), ErrMissingName)
	}
	if !m.VersionValid() {
		slogcontext.FromCtx(ctx).Warn("plugin version is not a semantic version", "plugin", m.ID(), "version", m.Version())
	}

	actions := []action.Action{
		&action.CopyPluginTree{Source: sourceDir, Destination: filepath.Join(destDir, m.ID())},
	}

	nodes := []*plugin.Node{m.Root()}
	for _, id := range p.Platforms {
		if block := m.PlatformBlock(id); block != nil {
			nodes = append(nodes, block)
		}
	}
	for _, n := range nodes {
		actions = append(actions, p.attachNode(ctx, n)...)
	}

	record := &action.RecordInstalledPlugin{
		Document: p.ConfigDocument,
		Name:     name,
		ID:       m.ID(),
	}
	if p.PersistVersions {
		record.Version = m.Version()
	}
	return append(actions, record), nil
}

func (p *Planner) attachNode(ctx context.Context, n *plugin.Node) []action.Action {
	var actions []action.Action
	for _, dep := range n.Dependencies() {
		a := &action.InstallDependency{ID: dep.ID, Installer: p.Dependencies}
		if dep.URL != "" {
			a.URI = fetch.DependencyURI(dep.URL, dep.Commit, dep.Subdir)
		}
		actions = append(actions, a)
	}
	for _, cf := range n.ConfigFiles() {
		if !p.targetsConfigDocument(cf.Target) {
			continue
		}
		actions = append(actions, &action.PatchConfigDocument{
			Document: p.ConfigDocument,
			Fragment: p.substitute(ctx, cf.Fragment),
		})
	}
	for _, pref := range n.Preferences() {
		actions = append(actions, &action.PatchConfigDocument{
			Document: p.ConfigDocument,
			Fragment: configxml.PreferenceFragment(pref.Name),
		})
	}
	return actions
}

// PlanPlatformCompletion plans materializing the plugin into the platform
// project behind factory. Declarations of the root block come first, then
// those of the platform block. When the plugin has a block for platformID
// the plan ends with the module list regenerated from installed.
func (p *Planner) PlanPlatformCompletion(ctx context.Context, m *plugin.Manifest, platformID string, factory action.Factory, installed []*plugin.Plugin) ([]action.Action, error) {
	actions := p.completeNode(ctx, m.ID(), m.Root(), platformID, factory)

	block := m.PlatformBlock(platformID)
	if block == nil {
		return actions, nil
	}
	actions = append(actions, p.completeNode(ctx, m.ID(), block, platformID, factory)...)
	list, err := modulelist.Build(installed, platformID)
	if err != nil {
		return nil, fmt.Errorf("%s: module list: %w", m.ID(), err)
	}
	return append(actions, factory.ModuleListAction(list)), nil
}

func (p *Planner) completeNode(ctx context.Context, pluginID string, n *plugin.Node, platformID string, f action.Factory) []action.Action {
	var actions []action.Action
	for _, mod := range n.JSModules() {
		if mod.AppliesTo(platformID) {
			actions = append(actions, f.JSModuleAction(mod.Source, pluginID, mod.Name))
		}
	}
	for _, a := range n.Assets() {
		actions = append(actions, f.AssetAction(a.Src, a.Target))
	}
	for _, cf := range n.ConfigFiles() {
		if p.targetsConfigDocument(cf.Target) {
			continue
		}
		actions = append(actions, f.ConfigFileAction(cf.Target, cf.Parent, p.substitute(ctx, cf.Fragment)))
	}
	for _, sf := range n.SourceFiles() {
		actions = append(actions, f.SourceFileAction(sf.Src, sf.TargetDir, sf.Framework, pluginID, sf.CompilerFlags))
	}
	for _, rf := range n.ResourceFiles() {
		actions = append(actions, f.ResourceFileAction(rf.Src, rf.Target))
	}
	for _, hf := range n.HeaderFiles() {
		actions = append(actions, f.HeaderFileAction(hf.Src, hf.TargetDir, pluginID))
	}
	for _, lf := range n.LibFiles() {
		actions = append(actions, f.LibFileAction(lf.Src, lf.Arch))
	}
	for _, fw := range n.Frameworks() {
		actions = append(actions, f.FrameworkAction(fw.Src, fw.Weak))
	}
	return actions
}

func (p *Planner) targetsConfigDocument(target string) bool {
	name := p.ConfigFileName
	if name == "" {
		name = configxml.FileName
	}
	return strings.HasSuffix(target, name)
}

// substitute replaces variables in body. Failures are logged and the
// original text is kept.
func (p *Planner) substitute(ctx context.Context, body string) string {
	if p.Variables == nil {
		return body
	}
	out, err := p.Variables.SubstituteXML(body)
	if err != nil {
		slogcontext.FromCtx(ctx).Error("variable substitution failed, using text as declared", "error", err)
		return body
	}
	return out
}
