package domain

import (
	"log/slog"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// Registry holds the statically known language plugins in probe order.
// More specific ecosystems are probed before generic ones; the no-tests
// plugin matches everything with the marker set and is probed last,
// only when the caller opted in.
type Registry struct {
	plugins []LanguagePlugin
	noTests LanguagePlugin
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithNoTestsFallback enables the no-tests plugin as the last probe.
func WithNoTestsFallback() RegistryOption {
	return func(r *Registry) {
		r.noTests = NewNoTestsPlugin()
	}
}

// NewRegistry constructs a Registry with the default plugin order.
func NewRegistry(runner adapter.CommandRunner, options ...RegistryOption) *Registry {
	registry := &Registry{
		plugins: []LanguagePlugin{
			NewMavenPlugin(runner),
			NewAntPlugin(runner),
			NewMakePlugin(runner),
			NewPythonPlugin(runner),
			NewRPlugin(runner),
			NewCSharpPlugin(runner),
			NewJupyterPlugin(runner),
		},
	}

	for _, option := range options {
		option(registry)
	}

	return registry
}

// DetectPlugin probes the plugins in priority order and returns the
// first that recognizes the exercise root. Selection is order stable:
// given two matching plugins, the higher priority one always wins.
func (r *Registry) DetectPlugin(root m.Path) (LanguagePlugin, error) {
	for _, plugin := range r.probeOrder() {
		if plugin.IsExerciseTypeCorrect(root) {
			slog.Debug("detected exercise type", "root", root, "plugin", plugin.Name())
			return plugin, nil
		}
	}

	return nil, &PluginNotFoundError{Root: root}
}

// DetectPluginFromArchive probes the plugins against the entry listing
// of an archive and returns the matching plugin together with the
// project directory prefix inside the archive.
func (r *Registry) DetectPluginFromArchive(entries []m.Path) (LanguagePlugin, m.Path, error) {
	for _, plugin := range r.probeOrder() {
		if dir, ok := plugin.FindProjectDirInArchive(entries); ok {
			slog.Debug("detected exercise type in archive", "plugin", plugin.Name(), "dir", dir)
			return plugin, dir, nil
		}
	}

	return nil, "", &NoProjectDirError{Reason: "no plugin recognizes any directory in the archive"}
}

// Plugins returns the probe order, fallback included when enabled.
func (r *Registry) Plugins() []LanguagePlugin {
	return r.probeOrder()
}

func (r *Registry) probeOrder() []LanguagePlugin {
	if r.noTests == nil {
		return r.plugins
	}

	return append(append([]LanguagePlugin{}, r.plugins...), r.noTests)
}
