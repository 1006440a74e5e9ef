package domain

import (
	"path"
	"strings"

	m "github.com/courselab/langs/internal/model"
)

// StudentFilePolicy decides which files in an exercise are the
// student's own work. A policy is valid for a single project as it uses
// that project's configuration to determine its output.
//
// Policies are pure: classification is a function of the relative path
// and the configuration only, with no filesystem access, so they are
// safe to share between concurrently classifying goroutines.
type StudentFilePolicy interface {
	// Config returns the project configuration this policy was
	// constructed with.
	Config() m.ProjectConfig

	// IsStudentSourceFile is the ecosystem default rule, before any
	// configuration overrides. For example an Ant project returns true
	// for files under "src".
	IsStudentSourceFile(rel m.Path) bool
}

// Classify determines the ownership of a relative path under the given
// policy. Precedence: the config file itself, then configured extra
// student files, then the ecosystem rule, with configured extra exercise
// files excluded from it.
func Classify(policy StudentFilePolicy, rel m.Path) m.FileClass {
	rel = normalizeRel(rel)
	if rel == m.ProjectConfigFile {
		return m.ConfigOwned
	}

	config := policy.Config()
	if matchesAny(rel, config.ExtraStudentFiles) {
		return m.StudentOwned
	}

	if policy.IsStudentSourceFile(rel) && !matchesAny(rel, config.ExtraExerciseFiles) {
		return m.StudentOwned
	}

	return m.TemplateOwned
}

// IsStudentFile reports whether the path is classified StudentOwned.
func IsStudentFile(policy StudentFilePolicy, rel m.Path) bool {
	return Classify(policy, rel) == m.StudentOwned
}

// IsUpdatingForced reports whether updates may overwrite the path even
// when it is a student file.
func IsUpdatingForced(policy StudentFilePolicy, rel m.Path) bool {
	return matchesAny(normalizeRel(rel), policy.Config().ForceUpdate)
}

func normalizeRel(rel m.Path) m.Path {
	return m.Path(path.Clean(strings.ReplaceAll(string(rel), "\\", "/")))
}

// matchesAny reports whether rel matches one of the configured patterns.
// A pattern without glob metacharacters matches itself and everything
// below it; a glob pattern is matched against the path and each of its
// ancestors.
func matchesAny(rel m.Path, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(rel, pattern) {
			return true
		}
	}

	return false
}

func matchPattern(rel m.Path, pattern string) bool {
	pattern = path.Clean(strings.ReplaceAll(pattern, "\\", "/"))
	if pattern == "." || pattern == "" {
		return false
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return pathHasPrefix(string(rel), pattern)
	}

	for sub := string(rel); sub != "." && sub != "/"; sub = path.Dir(sub) {
		if ok, err := path.Match(pattern, sub); err == nil && ok {
			return true
		}
	}

	return false
}

// pathHasPrefix reports whether prefix is a leading sequence of whole
// path components of p.
func pathHasPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}

	return strings.HasPrefix(p, prefix+"/")
}
