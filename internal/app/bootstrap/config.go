// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ClinSync.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, api_base_url, etc.
//   - Environment variables: CLINSYNC_MONGO_URI, CLINSYNC_API_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --api_base_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clinsync", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "clinsync-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},

	// Trial backend
	{Name: "api_base_url", Default: "http://localhost:8000", Desc: "Base URL of the trial-matching backend"},
	{Name: "api_timeout", Default: "15s", Desc: "Timeout for each backend request"},

	// Dashboard
	{Name: "dashboard_max_age", Default: "30s", Desc: "Dashboard data older than this is reloaded on view"},
	{Name: "fetch_concurrency", Default: 8, Desc: "Concurrent backend fetches per dashboard level (0 = unbounded)"},

	// Volunteer documents
	{Name: "ocr_languages", Default: "eng", Desc: "Comma-separated Tesseract languages for scanned documents"},
	{Name: "max_upload_mb", Default: 10, Desc: "Maximum size of one uploaded document in MB"},
	{Name: "draft_ttl", Default: "2h", Desc: "Unsubmitted volunteer drafts are discarded after this idle time"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_actions", Default: "all", Desc: "Match, trial and application event logging: 'all', 'db', 'log', or 'off'"},

	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CLINSYNC_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLINSYNC", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		APIBaseURL: strings.TrimRight(appValues.String("api_base_url"), "/"),
		APITimeout: appValues.Duration("api_timeout", 15*time.Second),

		DashboardMaxAge:  appValues.Duration("dashboard_max_age", 30*time.Second),
		FetchConcurrency: appValues.Int("fetch_concurrency"),

		OCRLanguages: splitList(appValues.String("ocr_languages")),
		MaxUploadMB:  appValues.Int("max_upload_mb"),
		DraftTTL:     appValues.Duration("draft_ttl", 2*time.Hour),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogActions: appValues.String("audit_log_actions"),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo URI and the backend URL are checked here so a typo fails fast
// instead of on the first request.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if !urlutil.IsValidAbsHTTPURL(appCfg.APIBaseURL) {
		return fmt.Errorf("api_base_url must be an absolute http(s) URL, got %q", appCfg.APIBaseURL)
	}
	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}
	if appCfg.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive")
	}
	if appCfg.FetchConcurrency < 0 {
		return fmt.Errorf("fetch_concurrency must not be negative")
	}
	if appCfg.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}
	if !auditModes[appCfg.AuditLogAuth] || !auditModes[appCfg.AuditLogActions] {
		return fmt.Errorf("audit_log_auth and audit_log_actions must be one of all, db, log, off")
	}
	return nil
}
