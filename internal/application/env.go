package application

import (
	"context"
	"log/slog"
	"time"

	"coachbot/internal/domain"
	"coachbot/internal/logging"
)

// Env carries the ambient collaborators shared by the services.
type Env struct {
	Logger   *slog.Logger
	Now      func() time.Time
	Location *time.Location
	Locale   string
}

func (e Env) now() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if e.Location != nil {
		return now().In(e.Location)
	}
	return now()
}

func (e Env) logger(ctx context.Context, service, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = e.Logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	pairs := []any{"service", service}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return logger.With(append(pairs, attrs...)...)
}

// ErrorKind labels err for logging.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.Code(err); code != "" {
		return code
	}
	return "unexpected"
}
