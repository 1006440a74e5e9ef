package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/courselab/langs/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayDetectedPlugin prints which plugin claimed the exercise root.
func (s *SimpleUI) DisplayDetectedPlugin(ctx context.Context, root m.Path, pluginName string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s: %s\n", root, pluginName)
}

// DisplayExerciseDesc prints the scanned tests and their points.
func (s *SimpleUI) DisplayExerciseDesc(ctx context.Context, desc m.ExerciseDesc) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Exercise: %s\n", desc.Name)

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Points"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, test := range desc.Tests {
		table.Append([]string{test.Name, strings.Join(test.Points, " ")})
	}

	table.Render()
	s.printf("%s", tableBuffer.String())
}

// DisplayRunResult prints the test run outcome, one line per test, and
// any captured logs for non-passing runs.
func (s *SimpleUI) DisplayRunResult(ctx context.Context, result m.RunResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Status: %s\n", result.Status)

	for _, test := range result.TestResults {
		marker := "FAIL"
		if test.Successful {
			marker = "PASS"
		}

		s.printf("%s %s", marker, test.Name)

		if len(test.Points) > 0 {
			s.printf(" [%s]", strings.Join(test.Points, " "))
		}

		s.printf("\n")

		if !test.Successful && test.Message != "" {
			s.printf("  %s\n", test.Message)
		}
	}

	if result.Status == m.RunPassed {
		return
	}

	for _, key := range sortedKeys(result.Logs) {
		if content := strings.TrimSpace(result.Logs[key]); content != "" {
			s.printf("--- %s ---\n%s\n", key, content)
		}
	}
}

// DisplayStyleResult prints style validation findings grouped by file.
func (s *SimpleUI) DisplayStyleResult(ctx context.Context, result *m.StyleValidationResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if result == nil {
		s.printf("No style checker for this exercise type\n")
		return
	}

	if result.Strategy == m.StyleDisabled {
		s.printf("Style check skipped: checker not installed\n")
		return
	}

	if len(result.Errors) == 0 {
		s.printf("No style issues found\n")
		return
	}

	s.printf("Style validation (%s):\n", result.Strategy)

	paths := make([]m.Path, 0, len(result.Errors))
	for path := range result.Errors {
		paths = append(paths, path)
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, path := range paths {
		for _, issue := range result.Errors[path] {
			s.printf("%s:%d:%d: %s\n", path, issue.Line, issue.Column, issue.Message)
		}
	}
}

// DisplayBatchReport renders the downloaded/skipped/failed partition of
// a batch as a table.
func (s *SimpleUI) DisplayBatchReport(ctx context.Context, report m.DownloadBatchReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Course", "Exercise", "State", "Detail"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	for _, item := range sortedItems(report) {
		detail := item.SkipReason
		if len(item.Errors) > 0 {
			detail = item.Errors[0]
		}

		table.Append([]string{item.CourseSlug, item.ExerciseSlug, item.State.String(), detail})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", report.Len()),
		"",
		fmt.Sprintf("%d failed", len(report.Failed)),
		"",
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())
}

// DisplayProgress prints one progress line.
func (s *SimpleUI) DisplayProgress(ctx context.Context, update m.StatusUpdate) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("[%3.0f%%] %s\n", update.PercentDone*100, update.Message)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func sortedItems(report m.DownloadBatchReport) []m.ExerciseDownload {
	items := make([]m.ExerciseDownload, 0, report.Len())
	items = append(items, report.Downloaded...)
	items = append(items, report.Skipped...)
	items = append(items, report.Failed...)

	sort.Slice(items, func(i, j int) bool {
		if items[i].CourseSlug != items[j].CourseSlug {
			return items[i].CourseSlug < items[j].CourseSlug
		}

		return items[i].ExerciseSlug < items[j].ExerciseSlug
	})

	return items
}

func sortedKeys(logs map[string]string) []string {
	keys := make([]string, 0, len(logs))
	for key := range logs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
