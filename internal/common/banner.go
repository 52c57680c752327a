package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved, non-secret settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("LeadRelay", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("portal", config.Portal.BaseURL).
		Str("mode", config.Harvest.Mode).
		Str("storage", config.Storage.Type).
		Str("log_level", config.Logging.Level).
		Msg("LeadRelay starting")
}
