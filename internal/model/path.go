// Package model contains the plain data types shared by the adapter,
// domain and controller layers.
package model

// Path represents a file system path.
type Path string

// FileClass is the ownership classification of a single file inside an
// exercise directory, relative to the exercise root.
type FileClass int

const (
	// StudentOwned marks a file as the student's own work. It is never
	// silently overwritten by template updates.
	StudentOwned FileClass = iota
	// TemplateOwned marks a file as instructor-provided scaffolding,
	// safe to overwrite or remove on update.
	TemplateOwned
	// ConfigOwned marks the per-exercise configuration file and any
	// plugin-declared always-keep files.
	ConfigOwned
)

func (c FileClass) String() string {
	switch c {
	case StudentOwned:
		return "student"
	case TemplateOwned:
		return "template"
	case ConfigOwned:
		return "config"
	}

	return "unknown"
}
