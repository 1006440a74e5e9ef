package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/courselab/langs/internal/model"
)

func TestExerciseRoot(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want m.Path
	}{
		{"no args defaults to cwd", []string{}, m.Path(".")},
		{"explicit root", []string{"exercises/part01-ex01"}, m.Path("exercises/part01-ex01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exerciseRoot(tt.args))
		})
	}
}

func TestBaseRootCmd(t *testing.T) {
	cmd := baseRootCmd()
	assert.Equal(t, "langs", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := baseRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "runs their test suites")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{
		"log-file", "verbose",
		workersFlagName, noTestsFlagName, serverFlagName, tokenFlagName,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name))
		})
	}
}

func TestNewRegistry_NoTestsToggle(t *testing.T) {
	original := viper.GetBool(noTestsConfigKey)
	defer viper.Set(noTestsConfigKey, original)

	viper.Set(noTestsConfigKey, false)
	assert.Len(t, newRegistry().Plugins(), 7)

	viper.Set(noTestsConfigKey, true)
	plugins := newRegistry().Plugins()
	require.NotEmpty(t, plugins)
	assert.Equal(t, "No-Tests", plugins[len(plugins)-1].Name())
}

func TestInit(t *testing.T) {
	// Test that init() created all the necessary instances
	assert.NotNil(t, ui)
	assert.NotNil(t, runner)
	assert.NotNil(t, exerciseFS)
	assert.NotNil(t, registry)
	assert.NotNil(t, archiver)
	assert.NotNil(t, merger)
	assert.NotNil(t, reportStore)
	assert.NotNil(t, reporter)
}
