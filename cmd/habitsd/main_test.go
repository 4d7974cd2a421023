package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/habits/internal/config"
	"github.com/idilsaglam/habits/internal/ui"
)

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := ui.Stderr
	ui.Stderr = &buf
	t.Cleanup(func() { ui.Stderr = prev })
	return &buf
}

func options(args ...string) []config.InitOption {
	return []config.InitOption{
		config.WithDisableDotEnv(true),
		config.WithFlagSet(flag.NewFlagSet("habitsd", flag.ContinueOnError), args),
	}
}

func TestRunInvalidConfigExitsTwo(t *testing.T) {
	t.Setenv("HABITS_LOG_LEVEL", "")
	stderr := captureStderr(t)

	code := run(context.Background(), options("-l", "loud")...)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "config:")
}

func TestRunUnreadableSeedExitsOne(t *testing.T) {
	t.Setenv("HABITS_LOG_LEVEL", "")
	t.Setenv("HABITSD_SEED_FILE", "")
	stderr := captureStderr(t)

	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	code := run(context.Background(), options("-seed", path)...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "seed:")
}
