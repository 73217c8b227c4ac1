package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCmd_NoServer(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	out, err := runCommand(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "stopped")
	assert.Contains(t, out, "socket not found")
}

func TestStatusCmd_JSONOutput(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	out, err := runCommand(t, "status", "--json")
	require.NoError(t, err)

	var status ProcessStatus
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &status))
	assert.False(t, status.Running)
	assert.Equal(t, "socket not found", status.Error)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{30, "30s"},
		{90, "1m 30s"},
		{3700, "1h 1m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.seconds))
	}
}

func TestFormatStatusTable_Stopped(t *testing.T) {
	out := formatStatusTable(ProcessStatus{Error: "socket not found"})
	assert.Contains(t, out, "stopped")
	assert.Contains(t, out, "socket not found")
}
