// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	uierrors "github.com/dalemusser/clinsync/internal/app/features/errors"
	"github.com/dalemusser/clinsync/internal/app/store/audit"
	"go.uber.org/zap"
)

// EventReader is the read side of the audit store.
type EventReader interface {
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, f audit.QueryFilter) (int64, error)
}

type Handler struct {
	Events EventReader
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs the organization activity handler.
func NewHandler(events EventReader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Log:    logger,
		ErrLog: errLog,
	}
}
