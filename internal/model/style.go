package model

// StyleValidationStrategy determines how style errors are handled.
type StyleValidationStrategy string

const (
	StyleFail     StyleValidationStrategy = "FAIL"
	StyleWarn     StyleValidationStrategy = "WARN"
	StyleDisabled StyleValidationStrategy = "DISABLED"
)

// StyleValidationError is a single style check finding.
type StyleValidationError struct {
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Message    string `json:"message"`
	SourceName string `json:"sourceName"`
}

// StyleValidationResult is the outcome of a style check. An empty Errors
// map means the project is clean.
type StyleValidationResult struct {
	Strategy StyleValidationStrategy         `json:"strategy"`
	Errors   map[Path][]StyleValidationError `json:"validationErrors"`
}
