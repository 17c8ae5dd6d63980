package rcli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaypoint/retry/internal/rcli"
)

func TestSuccess_ColorNeverOmitsEscapeCodes(t *testing.T) {
	rcli.SetColorMode(rcli.ColorNever)
	t.Cleanup(func() { rcli.SetColorMode(rcli.ColorAuto) })

	var buf bytes.Buffer
	rcli.SetOutputForTest(&buf, &bytes.Buffer{})

	rcli.Success("deposit of %d applied", 100)
	assert.Contains(t, buf.String(), "OK  deposit of 100 applied")
	assert.NotContains(t, buf.String(), "\033[")
}

func TestWarningAndFailure_RouteToExpectedStreams(t *testing.T) {
	rcli.SetColorMode(rcli.ColorAlways)
	t.Cleanup(func() { rcli.SetColorMode(rcli.ColorAuto) })

	var stdout, stderr bytes.Buffer
	rcli.SetOutputForTest(&stdout, &stderr)

	rcli.Warning("retrying in %dms", 50)
	rcli.Failure("gave up after %d attempts", 3)

	assert.Contains(t, stdout.String(), "retrying in 50ms")
	assert.Contains(t, stdout.String(), "\033[33m")
	assert.Contains(t, stderr.String(), "gave up after 3 attempts")
	assert.Contains(t, stderr.String(), "\033[31m")
}
