package cli

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/config"
)

func newFlagSet() (*flag.FlagSet, *int, *bool) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	k := fs.Int("k", 4, "")
	v := fs.Bool("v", false, "")
	return fs, k, v
}

func TestParseInterleaved(t *testing.T) {
	fs, k, v := newFlagSet()
	pos, err := Parse(fs, []string{"in.csv", "-k", "7", "out.png", "-v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"in.csv", "out.png"}, pos)
	assert.Equal(t, 7, *k)
	assert.True(t, *v)
	assert.True(t, IsSet(fs, "k"))
}

func TestParseDefaults(t *testing.T) {
	fs, k, _ := newFlagSet()
	pos, err := Parse(fs, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, pos)
	assert.Equal(t, 4, *k)
	assert.False(t, IsSet(fs, "k"))
}

func TestParseBadFlag(t *testing.T) {
	fs, _, _ := newFlagSet()
	_, err := Parse(fs, []string{"a", "-k", "seven"})
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"success", nil, ExitOK, ""},
		{"help", flag.ErrHelp, ExitOK, ""},
		{"usage", Usagef("expected %d arguments, got %d", 4, 1), ExitUsage, "tool: expected 4 arguments, got 1\n"},
		{"failure", fmt.Errorf("%w: bad row", dbscan.ErrInvalidInput), ExitFailure, "tool: invalid input: bad row\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, Report(&buf, "tool", tt.err))
			assert.Equal(t, tt.wantOut, buf.String())
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	l, err := Logger(&buf, cfg, false)
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	l, err = Logger(&buf, cfg, true)
	require.NoError(t, err)
	l.Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")

	cfg.Logging.Level = "loud"
	_, err = Logger(&buf, cfg, false)
	assert.ErrorIs(t, err, dbscan.ErrInvalidInput)
}
