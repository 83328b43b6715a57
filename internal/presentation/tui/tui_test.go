package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Contains(t, Outcome(domain.OutcomeAccept), "accept")
	assert.Contains(t, Outcome(domain.OutcomeReject), "reject")
	assert.Contains(t, Outcome(domain.OutcomeHalt), "halt")
	assert.Contains(t, Error("boom"), "error: boom")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# states")
	require.NoError(t, err)
	assert.Contains(t, out, "states")
}
