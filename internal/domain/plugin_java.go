package domain

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// Shared scanning and style checking for the two Java build systems.

var (
	javaClassPattern  = regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:final\s+)?class\s+(\w+)`)
	javaTestPattern   = regexp.MustCompile(`@Test[\s\S]*?(?:public\s+)?\w+\s+(\w+)\s*\(`)
	javaPointsPattern = regexp.MustCompile(`@Points\s*\(\s*"([^"]*)"\s*\)`)
)

// scanJavaTests statically inspects Java test sources under testDir for
// @Test methods and their @Points annotations. Class level points apply
// to every test in the class.
func scanJavaTests(root m.Path, testDir string, exerciseName string) (m.ExerciseDesc, error) {
	desc := m.ExerciseDesc{Name: exerciseName, Tests: []m.TestDesc{}}

	err := scanSources(root,
		func(rel m.Path) bool {
			return pathHasPrefix(string(rel), testDir) && path.Ext(string(rel)) == ".java"
		},
		func(rel m.Path, content string) error {
			content = stripLineComments(content, "//")

			className := ""
			if match := javaClassPattern.FindStringSubmatch(content); match != nil {
				className = match[1]
			}

			classPoints := classLevelPoints(content)

			for _, block := range javaTestPattern.FindAllStringSubmatch(content, -1) {
				method := block[1]
				points := append([]string{}, classPoints...)
				for _, pts := range javaPointsPattern.FindAllStringSubmatch(block[0], -1) {
					points = append(points, strings.Fields(pts[1])...)
				}

				name := method
				if className != "" {
					name = className + " " + method
				}

				desc.Tests = append(desc.Tests, m.TestDesc{Name: name, Points: points})
			}

			return nil
		})
	if err != nil {
		return m.ExerciseDesc{}, err
	}

	return desc, nil
}

// classLevelPoints extracts a @Points annotation that precedes the
// class declaration.
func classLevelPoints(content string) []string {
	classIdx := javaClassPattern.FindStringIndex(content)
	if classIdx == nil {
		return nil
	}

	var points []string
	for _, match := range javaPointsPattern.FindAllStringSubmatchIndex(content[:classIdx[0]], -1) {
		value := content[match[2]:match[3]]
		points = append(points, strings.Fields(value)...)
	}

	return points
}

// checkstyleReport mirrors the relevant parts of checkstyle's XML
// output format.
type checkstyleReport struct {
	XMLName xml.Name `xml:"checkstyle"`
	Files   []struct {
		Name   string `xml:"name,attr"`
		Errors []struct {
			Line     int    `xml:"line,attr"`
			Column   int    `xml:"column,attr"`
			Severity string `xml:"severity,attr"`
			Message  string `xml:"message,attr"`
			Source   string `xml:"source,attr"`
		} `xml:"error"`
	} `xml:"file"`
}

// runCheckstyle runs the checkstyle tool over the student sources and
// parses its XML report. The locale is forwarded so messages come back
// in the student's language.
func runCheckstyle(ctx context.Context, runner adapter.CommandRunner, root m.Path, locale string) (*m.StyleValidationResult, error) {
	spec := adapter.CommandSpec{
		Program: "checkstyle",
		Args:    []string{"-f", "xml", "src"},
		Dir:     root,
		Env:     map[string]string{"LC_ALL": locale},
	}

	output, err := runner.Run(ctx, spec)
	if err != nil {
		var start *adapter.StartError
		if errors.As(err, &start) {
			slog.Warn("checkstyle not available, skipping style check", "root", root)
			return disabledStyleResult(), nil
		}

		return nil, fmt.Errorf("running checkstyle: %w", err)
	}

	var report checkstyleReport
	if err := xml.Unmarshal(output.Stdout, &report); err != nil {
		return nil, fmt.Errorf("parsing checkstyle report: %w", err)
	}

	result := &m.StyleValidationResult{
		Strategy: m.StyleFail,
		Errors:   map[m.Path][]m.StyleValidationError{},
	}

	for _, file := range report.Files {
		for _, styleError := range file.Errors {
			result.Errors[m.Path(file.Name)] = append(result.Errors[m.Path(file.Name)], m.StyleValidationError{
				Line:       styleError.Line,
				Column:     styleError.Column,
				Message:    styleError.Message,
				SourceName: styleError.Source,
			})
		}
	}

	return result, nil
}

// MavenPlugin supports Java exercises built with Apache Maven.
type MavenPlugin struct {
	runner adapter.CommandRunner
}

// NewMavenPlugin constructs a MavenPlugin using the given runner.
func NewMavenPlugin(runner adapter.CommandRunner) *MavenPlugin {
	return &MavenPlugin{runner: runner}
}

func (p *MavenPlugin) Name() string { return "apache-maven" }

func (p *MavenPlugin) IsExerciseTypeCorrect(root m.Path) bool {
	return fileExists(root, "pom.xml")
}

func (p *MavenPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewMavenPolicy(config)
}

func (p *MavenPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc, err := scanJavaTests(root, "src/test", exerciseName)
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

func (p *MavenPlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

	// Compile first so build breakage is reported as such rather than
	// as a failed test run.
	compile, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "mvn",
		Args:    []string{"-q", "clean", "compile", "test-compile"},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	if compile.ExitCode != 0 {
		return m.RunResult{
			Status:      m.RunCompileFailed,
			TestResults: []m.TestResult{},
			Logs:        runLogs(compile),
		}
	}

	output, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "mvn",
		Args:    []string{"-q", "test"},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	result, err := readTestResultsFile(root, runLogs(output))
	if err != nil {
		return m.GenericErrorResult(err.Error(), runLogs(output))
	}

	return overrideNoTestsFound(result)
}

func (p *MavenPlugin) CheckCodeStyle(ctx context.Context, root m.Path, locale string) (*m.StyleValidationResult, error) {
	return runCheckstyle(ctx, p.runner, root, locale)
}

func (p *MavenPlugin) Clean(ctx context.Context, root m.Path) error {
	output, err := p.runner.Run(ctx, adapter.CommandSpec{
		Program: "mvn",
		Args:    []string{"clean"},
		Dir:     root,
	})
	if err != nil {
		return &PluginError{Plugin: p.Name(), Err: err}
	}

	if output.ExitCode != 0 {
		return &PluginError{Plugin: p.Name(), Err: fmt.Errorf("mvn clean exited with %d", output.ExitCode)}
	}

	return nil
}

func (p *MavenPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	return findMarkerDir(entries, func(base string, _ m.Path) bool {
		return base == "pom.xml"
	})
}

// AntPlugin supports Java exercises built with Apache Ant.
type AntPlugin struct {
	runner adapter.CommandRunner
}

// NewAntPlugin constructs an AntPlugin using the given runner.
func NewAntPlugin(runner adapter.CommandRunner) *AntPlugin {
	return &AntPlugin{runner: runner}
}

func (p *AntPlugin) Name() string { return "apache-ant" }

func (p *AntPlugin) IsExerciseTypeCorrect(root m.Path) bool {
	return fileExists(root, "build.xml") || dirExists(root, "test") && dirExists(root, "src")
}

func (p *AntPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewAntPolicy(config)
}

func (p *AntPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc, err := scanJavaTests(root, "test", exerciseName)
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

func (p *AntPlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

	compile, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "ant",
		Args:    []string{"compile", "compile-test"},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	if compile.ExitCode != 0 {
		return m.RunResult{
			Status:      m.RunCompileFailed,
			TestResults: []m.TestResult{},
			Logs:        runLogs(compile),
		}
	}

	output, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "ant",
		Args:    []string{"test"},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	result, err := readTestResultsFile(root, runLogs(output))
	if err != nil {
		return m.GenericErrorResult(err.Error(), runLogs(output))
	}

	return overrideNoTestsFound(result)
}

func (p *AntPlugin) CheckCodeStyle(ctx context.Context, root m.Path, locale string) (*m.StyleValidationResult, error) {
	return runCheckstyle(ctx, p.runner, root, locale)
}

func (p *AntPlugin) Clean(ctx context.Context, root m.Path) error {
	output, err := p.runner.Run(ctx, adapter.CommandSpec{
		Program: "ant",
		Args:    []string{"clean"},
		Dir:     root,
	})
	if err != nil {
		return &PluginError{Plugin: p.Name(), Err: err}
	}

	if output.ExitCode != 0 {
		return &PluginError{Plugin: p.Name(), Err: fmt.Errorf("ant clean exited with %d", output.ExitCode)}
	}

	return nil
}

func (p *AntPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	return findMarkerDir(entries, func(base string, _ m.Path) bool {
		return base == "build.xml"
	})
}
