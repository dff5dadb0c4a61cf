package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Archive
	out.Archive = cfg.Archive
	redact(&out.Archive.AccessKey)
	redact(&out.Archive.SecretKey)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Auth — per-identity secrets collapse to a redacted map of the same
	// size so the operator can still see which identities are configured.
	out.Auth = cfg.Auth
	redact(&out.Auth.MasterSecret)
	if cfg.Auth.Secrets != nil {
		out.Auth.Secrets = make(map[string]string, len(cfg.Auth.Secrets))
		for identity := range cfg.Auth.Secrets {
			out.Auth.Secrets[identity] = redacted
		}
	}

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Feed.Assets != nil {
		out.Feed.Assets = make([]string, len(cfg.Feed.Assets))
		copy(out.Feed.Assets, cfg.Feed.Assets)
	}

	// Copy maps so mutations to the redacted copy do not affect the original.
	if cfg.Feed.Static != nil {
		out.Feed.Static = make(map[string]int64, len(cfg.Feed.Static))
		for k, v := range cfg.Feed.Static {
			out.Feed.Static[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
