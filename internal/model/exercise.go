package model

// TestDesc describes a single test case of an exercise.
type TestDesc struct {
	// Name is the full name of the test. When the language organises
	// tests into suites or classes, the customary form is
	// "ClassName.methodName".
	Name string `json:"name"`
	// Points lists the point names that passing this test may award.
	// A point is obtained only once every test requiring it passes.
	Points []string `json:"points"`
}

// ExerciseDesc describes an exercise and the tests that will be run for
// it. It is produced by static inspection of the exercise sources.
type ExerciseDesc struct {
	Name  string     `json:"name"`
	Tests []TestDesc `json:"tests"`
}
