package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig writes a minimal attend.yaml pointing at a database inside a
// fresh temp dir, and returns both paths.
func testConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "attendance.db")
	cfgPath = filepath.Join(dir, "attend.yaml")
	content := fmt.Sprintf("db:\n  path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath, dbPath
}

// execute runs the CLI with the given args, capturing combined output.
func execute(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if in != nil {
		cmd.SetIn(in)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "attend", cmd.Use)
	assert.Contains(t, cmd.Long, "attendance")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"init", "scan", "student", "event", "survey",
		"export", "import", "summary", "hash-password",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestScanCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	scanCmd, _, err := cmd.Find([]string{"scan"})
	require.NoError(t, err)

	surveyFlag := scanCmd.Flags().Lookup("survey")
	require.NotNil(t, surveyFlag)
	assert.Equal(t, "", surveyFlag.DefValue)

	noSurveyFlag := scanCmd.Flags().Lookup("no-survey")
	require.NotNil(t, noSurveyFlag)
	assert.Equal(t, "false", noSurveyFlag.DefValue)
}

func TestSummaryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	summaryCmd, _, err := cmd.Find([]string{"summary"})
	require.NoError(t, err)

	filterFlag := summaryCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)

	outputFlag := summaryCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cfgPath, _ := testConfig(t)
	_, err := execute(t, nil, "--config", cfgPath, "--format", "invalid", "student", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMissingConfigFileIsAnError(t *testing.T) {
	_, err := execute(t, nil, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "student", "list")
	require.Error(t, err)
}
