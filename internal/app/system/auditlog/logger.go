// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/clinsync/internal/app/store/audit"
	"github.com/dalemusser/clinsync/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each value is one of
// "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only) or "off".
type Config struct {
	// Auth covers login, signup and logout.
	Auth string
	// Actions covers match decisions, trial creation and application submits.
	Actions string
}

// Logger records audit events to MongoDB (via audit.Store) and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.OrganizationID != "" {
		fields = append(fields, zap.String("organization_id", event.OrganizationID))
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's setting. A nil
// Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAction:
		setting = l.config.Actions
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) event(r *http.Request, category, eventType, orgID string) audit.Event {
	return audit.Event{
		Category:       category,
		EventType:      eventType,
		OrganizationID: orgID,
		IP:             ratelimit.ClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
	}
}

func failed(e audit.Event, err error) audit.Event {
	if err != nil {
		e.Success = false
		e.FailureReason = err.Error()
	}
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful organization login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, orgID, email string) {
	e := l.event(r, audit.CategoryAuth, audit.EventLoginSuccess, orgID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailed logs a rejected login attempt.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email string, err error) {
	e := failed(l.event(r, audit.CategoryAuth, audit.EventLoginFailed, ""), err)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Signup logs an organization registration attempt.
func (l *Logger) Signup(ctx context.Context, r *http.Request, orgID, email string, err error) {
	typ := audit.EventSignupSuccess
	if err != nil {
		typ = audit.EventSignupFailed
	}
	e := failed(l.event(r, audit.CategoryAuth, typ, orgID), err)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Logout logs an organization signing out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, orgID string) {
	l.Log(ctx, l.event(r, audit.CategoryAuth, audit.EventLogout, orgID))
}

// --- Action Events ---

// MatchDecision logs an approve or reject; err is the failure, if any.
func (l *Logger) MatchDecision(ctx context.Context, r *http.Request, orgID, matchID, status string, err error) {
	typ := audit.EventMatchApproved
	if status == "rejected" {
		typ = audit.EventMatchRejected
	}
	if err != nil {
		typ = audit.EventMatchDecisionFailed
	}
	e := failed(l.event(r, audit.CategoryAction, typ, orgID), err)
	e.Subject = matchID
	e.Details = map[string]string{"decision": status}
	l.Log(ctx, e)
}

// TrialCreated logs a trial creation attempt.
func (l *Logger) TrialCreated(ctx context.Context, r *http.Request, orgID, trialID, title string, err error) {
	typ := audit.EventTrialCreated
	if err != nil {
		typ = audit.EventTrialCreateFailed
	}
	e := failed(l.event(r, audit.CategoryAction, typ, orgID), err)
	e.Subject = trialID
	e.Details = map[string]string{"title": title}
	l.Log(ctx, e)
}

// ApplicationSubmitted logs a stored volunteer application.
func (l *Logger) ApplicationSubmitted(ctx context.Context, r *http.Request, applicationID string, documents int) {
	e := l.event(r, audit.CategoryAction, audit.EventApplicationSubmitted, "")
	e.Subject = applicationID
	e.Details = map[string]string{"documents": strconv.Itoa(documents)}
	l.Log(ctx, e)
}
