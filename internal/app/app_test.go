package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/models"
)

func testConfig(t *testing.T) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Portal.Email = "agent@example.com"
	cfg.Portal.Password = "secret"
	cfg.Webhook.URL = "https://hooks.example.com/leads"
	cfg.Storage.Type = "file"
	cfg.Storage.File.Path = filepath.Join(t.TempDir(), "cursor.json")
	return cfg
}

func TestNew_WiresPipeline(t *testing.T) {
	application, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.NotNil(t, application.Pipeline)
	assert.NotNil(t, application.SchedulerService)
	assert.Equal(t, models.HarvestModeIncremental, application.Harvester.Mode())
}

func TestNew_InvalidConfigOpensNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Portal.Password = ""

	application, err := New(cfg, arbor.NewLogger())
	assert.Nil(t, application)

	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "portal.password", cfgErr.Field)
	assert.NoFileExists(t, cfg.Storage.File.Path)
}

func TestNewCursorOnly_NoCredentialsNeeded(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Type = "badger"
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "db")

	application, err := NewCursorOnly(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.Nil(t, application.Pipeline)
	assert.NotNil(t, application.CursorService)
}
