package model

// RunStatus is the overall outcome of a test run.
type RunStatus string

const (
	// RunPassed means the submission and tests compiled and all tests passed.
	RunPassed RunStatus = "PASSED"
	// RunTestsFailed means the submission and tests compiled but some tests failed.
	RunTestsFailed RunStatus = "TESTS_FAILED"
	// RunCompileFailed means the submission or tests did not compile.
	RunCompileFailed RunStatus = "COMPILE_FAILED"
	// RunTestrunInterrupted means the test run was forcibly stopped, e.g. on timeout.
	RunTestrunInterrupted RunStatus = "TESTRUN_INTERRUPTED"
	// RunGenericError covers toolchain and environment faults that prevent
	// a verdict, e.g. a missing compiler binary.
	RunGenericError RunStatus = "GENERIC_ERROR"
)

// Well-known log keys in RunResult.Logs.
const (
	LogStdout       = "stdout"
	LogStderr       = "stderr"
	LogValgrind     = "valgrind"
	LogGenericError = "generic_error_message"
)

// TestResult is the outcome of a single test case.
type TestResult struct {
	Name       string `json:"name"`
	Successful bool   `json:"successful"`
	// Points that were awarded by this test.
	Points    []string `json:"points"`
	Message   string   `json:"message"`
	Exception []string `json:"exception"`
}

// RunResult is the outcome of running an exercise's test suite.
//
// A CompileFailed or GenericError result carries no test results; the
// relevant tool output is found in Logs instead.
type RunResult struct {
	Status      RunStatus         `json:"status"`
	TestResults []TestResult      `json:"testResults"`
	Logs        map[string]string `json:"logs"`
}

// GenericErrorResult builds a RunResult for a toolchain or environment
// fault. Faults are data so that batch processing can always continue.
func GenericErrorResult(message string, logs map[string]string) RunResult {
	if logs == nil {
		logs = map[string]string{}
	}
	logs[LogGenericError] = message

	return RunResult{
		Status:      RunGenericError,
		TestResults: nil,
		Logs:        logs,
	}
}
