// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries what is specific to ClinSync: the MongoDB store for
// volunteer applications and audit events, the session cookie, the trial
// backend, the dashboard cache and the document pipeline.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: clinsync-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Trial backend
	APIBaseURL string        // e.g., https://api.clinsync.example
	APITimeout time.Duration // per outbound request

	// Dashboard
	DashboardMaxAge  time.Duration // a board older than this is refreshed on view
	FetchConcurrency int           // per-level fan-out bound, 0 = unbounded

	// Volunteer documents
	OCRLanguages []string
	MaxUploadMB  int
	DraftTTL     time.Duration // unsubmitted intake drafts are dropped after this

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogActions string

	MetricsEnabled bool
}

// MaxUploadBytes returns the per-file upload limit in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
