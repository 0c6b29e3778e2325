// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"

	auditlogfeature "github.com/dalemusser/clinsync/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/clinsync/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/clinsync/internal/app/features/errors"
	healthfeature "github.com/dalemusser/clinsync/internal/app/features/health"
	homefeature "github.com/dalemusser/clinsync/internal/app/features/home"
	loginfeature "github.com/dalemusser/clinsync/internal/app/features/login"
	logoutfeature "github.com/dalemusser/clinsync/internal/app/features/logout"
	signupfeature "github.com/dalemusser/clinsync/internal/app/features/signup"
	trialsfeature "github.com/dalemusser/clinsync/internal/app/features/trials"
	volunteerfeature "github.com/dalemusser/clinsync/internal/app/features/volunteer"
	applicationstore "github.com/dalemusser/clinsync/internal/app/store/applications"
	auditstore "github.com/dalemusser/clinsync/internal/app/store/audit"
	"github.com/dalemusser/clinsync/internal/app/system/auditlog"
	"github.com/dalemusser/clinsync/internal/app/system/auth"
	"github.com/dalemusser/clinsync/internal/app/system/extract"
	"github.com/dalemusser/clinsync/internal/app/system/metrics"
	"github.com/dalemusser/clinsync/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: MongoDB plus the trial backend client, boards and drafts
//   - logger: the fully configured zap.Logger for this app
//
// ClinSync initializes the template engine, applies CSRF and session
// middleware, and mounts the public pages, organization sign-in, the
// trial dashboard and the volunteer intake form.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditStore := auditstore.New(deps.MongoDatabase)
	audit := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Actions: appCfg.AuditLogActions,
	})
	limiter := ratelimit.NewLoginLimiter()
	pipeline := extract.New(extract.Options{
		OCRLanguages: appCfg.OCRLanguages,
		Log:          logger,
	})

	r := chi.NewRouter()

	// CSRF for every unsafe method. Outside production the app is served
	// over plain HTTP, which the origin check has to be told about.
	csrfKey := sha256.Sum256([]byte(appCfg.SessionKey))
	protect := csrf.Protect(csrfKey[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, "Your form expired. Please go back and try again.", "/")
		})),
	)
	if !secure {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
			})
		})
	}
	r.Use(protect)

	// Global auth middleware: loads the signed-in organization into context.
	r.Use(sessionMgr.LoadSessionOrg)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.API, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Organization authentication
	loginHandler := loginfeature.NewHandler(deps.API, sessionMgr, limiter, audit, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	signupHandler := signupfeature.NewHandler(deps.API, sessionMgr, limiter, audit, errLog, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.Boards, audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Organization dashboard and trials
	dashboardHandler := dashboardfeature.NewHandler(deps.Boards, appCfg.DashboardMaxAge, sessionMgr, audit, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))
	r.With(sessionMgr.RequireSignedIn).Get("/dashboard.json", dashboardHandler.ServeJSON)

	trialsHandler := trialsfeature.NewHandler(deps.API, deps.Boards, sessionMgr, audit, errLog, logger)
	r.Mount("/trials", trialsfeature.Routes(trialsHandler, sessionMgr))

	activityHandler := auditlogfeature.NewHandler(auditStore, errLog, logger)
	r.Mount("/activity", auditlogfeature.Routes(activityHandler, sessionMgr))

	// Volunteer intake
	volunteerHandler := volunteerfeature.NewHandler(
		pipeline,
		deps.Drafts,
		applicationstore.New(deps.MongoDatabase),
		sessionMgr,
		audit,
		errLog,
		appCfg.MaxUploadBytes(),
		logger,
	)
	r.Mount("/volunteer", volunteerfeature.Routes(volunteerHandler))

	return r, nil
}
