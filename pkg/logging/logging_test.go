package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhoades1/claude-tracking/pkg/config"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cctrack.log")
	closer, err := Setup(config.LoggingConfig{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{})
		log.SetLevel(log.InfoLevel)
	})

	log.WithField("tenant", "ACME").Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tenant":"ACME"`)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestSetupRejectsBadLevel(t *testing.T) {
	_, err := Setup(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestSetupRejectsBadFormat(t *testing.T) {
	_, err := Setup(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
