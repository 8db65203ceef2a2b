// Package audit records failures into the durable error log.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

const writeTimeout = 3 * time.Second

// Writer persists error log entries.
type Writer interface {
	AppendErrorLog(ctx context.Context, e domain.ErrorLogEntry) error
}

// Sink is the best-effort error log. Every failure is logged through zap;
// it is also appended to the store, and a failing append is only logged.
type Sink struct {
	w   Writer
	log *zap.Logger
	now func() time.Time
}

// NewSink creates a Sink. w may be nil, in which case entries are only logged.
func NewSink(w Writer, log *zap.Logger) *Sink {
	return &Sink{w: w, log: log, now: time.Now}
}

// Record logs err under op for the given chat (nil when not chat-specific).
// It never blocks longer than writeTimeout and survives a cancelled ctx.
func (s *Sink) Record(ctx context.Context, op string, chatID *int64, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if chatID != nil {
		fields = append(fields, zap.Int64("chat_id", *chatID))
	}
	s.log.Error("operation failed", fields...)

	if s.w == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	entry := domain.ErrorLogEntry{
		At:       s.now().UTC(),
		Function: op,
		ChatID:   chatID,
		Message:  op + ": " + err.Error(),
	}
	if werr := s.w.AppendErrorLog(wctx, entry); werr != nil {
		s.log.Error("error log write failed", append(fields, zap.NamedError("write_error", werr))...)
	}
}
