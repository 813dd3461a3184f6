package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("SITEWRAP_CONFIG_ROOT", t.TempDir())
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/nonexistent/sitewrap-test-bus")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRunRejectsBothModes(t *testing.T) {
	isolate(t)
	var stderr bytes.Buffer

	code := run([]string{"--manager", "--shell", uuid.NewString()}, strings.NewReader(""), &bytes.Buffer{}, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "cannot be combined")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	isolate(t)

	code := run([]string{"--window"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	assert.Equal(t, exitUsage, code)
}

func TestRunUnknownShellID(t *testing.T) {
	isolate(t)
	var stderr bytes.Buffer

	code := run([]string{"--shell", uuid.NewString()}, strings.NewReader(""), &bytes.Buffer{}, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "not_found")
}

func TestRunMalformedShellID(t *testing.T) {
	isolate(t)

	code := run([]string{"--shell", "not-an-id"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	assert.Equal(t, exitFailure, code)
}

func TestRunManagerUntilEOF(t *testing.T) {
	isolate(t)
	var stdout bytes.Buffer

	code := run(nil, strings.NewReader("list\n"), &stdout, &bytes.Buffer{})

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "Desktop integration unavailable")
	assert.Contains(t, stdout.String(), "No web apps yet")
}

func TestIconRetries(t *testing.T) {
	assert.Equal(t, -1, iconRetries(0))
	assert.Equal(t, -1, iconRetries(-3))
	assert.Equal(t, 4, iconRetries(4))
}
