package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand(Streams{Out: &bytes.Buffer{}})

	assert.Equal(t, "datahub", root.Name)
	assert.NotNil(t, root.Flags)

	expectedCommands := []string{
		"permissions",
		"check",
		"form-mode",
		"validation-defaults",
		"applications",
		"submissions",
	}
	for _, name := range expectedCommands {
		require.Contains(t, root.Subcommands, name)
		assert.NotNil(t, root.Subcommands[name].Run, name)
	}
	assert.Len(t, root.Subcommands, len(expectedCommands))
}

func TestCommandUsage(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(Streams{Out: &out})

	require.NoError(t, root.Execute(nil))
	assert.Contains(t, out.String(), "Usage: datahub <command> [args]")
	assert.Contains(t, out.String(), "validation-defaults")

	out.Reset()
	require.NoError(t, root.Execute([]string{"--help"}))
	assert.Contains(t, out.String(), "Commands:")
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	root := NewRootCommand(Streams{Out: &bytes.Buffer{}})
	err := root.Execute([]string{"deploy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: deploy")
}

func TestCommands_RequireToken(t *testing.T) {
	t.Setenv("DATAHUB_TOKEN", "")
	root := NewRootCommand(Streams{Out: &bytes.Buffer{}})

	err := root.Execute([]string{"permissions"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session token is required")
}

func TestCommands_ValidateFlags(t *testing.T) {
	t.Setenv("DATAHUB_TOKEN", "tok")
	root := NewRootCommand(Streams{Out: &bytes.Buffer{}})

	tests := []struct {
		args    []string
		wantErr string
	}{
		{[]string{"check", "-permission", "dashboard"}, "resource:action"},
		{[]string{"form-mode"}, "application is required"},
		{[]string{"validation-defaults"}, "submission is required"},
		{[]string{"applications", "-direction", "up"}, "asc or desc"},
	}
	for _, tt := range tests {
		err := root.Execute(tt.args)
		require.Error(t, err, tt.args)
		assert.Contains(t, err.Error(), tt.wantErr)
	}
}
