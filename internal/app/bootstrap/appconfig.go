// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: WAFFLE's CoreConfig
// handles ports, TLS, logging level and the like.
type AppConfig struct {
	// Document store backend: "mongo" or "memory". The memory backend
	// exists for local development and tests; data does not survive a
	// restart.
	StoreBackend string

	// MongoDB connection configuration (used when StoreBackend is "mongo")
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: hiveflow-session)
	SessionDomain string // Cookie domain (blank means current host)

	// File storage configuration
	StorageLocalPath string // Local storage root for uploaded files

	// Outbound email (delivered through the hosted mailer API)
	MailerAPIURL    string // Mailer endpoint; blank disables invite email
	MailerConfigKey string // Tenant key the mailer uses to pick sender identity

	// Google OAuth configuration (blank disables the Google sign-in routes)
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for invite links and OAuth callbacks
	BaseURL string // e.g., "https://hiveflow.app" or "http://localhost:3000"

	// Platform owner's email address. Only this account may send global
	// broadcasts; blank disables broadcasting.
	OwnerEmail string

	// Chat stream poll interval. The change feed is poll-based; this is
	// the worst-case delivery latency for chat messages.
	ChatPollInterval time.Duration

	// Request deadline overrides. Zero keeps the built-in tier default.
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
