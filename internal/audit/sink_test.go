package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

type memWriter struct {
	mu      sync.Mutex
	entries []domain.ErrorLogEntry
	err     error
	ctxErr  error
}

func (m *memWriter) AppendErrorLog(ctx context.Context, e domain.ErrorLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestSinkRecord_WritesEntry(t *testing.T) {
	w := &memWriter{}
	core, logs := observer.New(zap.DebugLevel)
	s := NewSink(w, zap.New(core))
	fixed := time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	chat := int64(42)
	s.Record(context.Background(), "add_subscription", &chat, errors.New("db down"))

	require.Len(t, w.entries, 1)
	e := w.entries[0]
	require.Equal(t, "add_subscription", e.Function)
	require.NotNil(t, e.ChatID)
	require.Equal(t, int64(42), *e.ChatID)
	require.Equal(t, fixed, e.At)
	require.Contains(t, e.Message, "db down")
	require.Equal(t, 1, logs.FilterMessage("operation failed").Len())
}

func TestSinkRecord_NilErrorIsIgnored(t *testing.T) {
	w := &memWriter{}
	s := NewSink(w, zap.NewNop())

	s.Record(context.Background(), "list_subscriptions", nil, nil)

	require.Empty(t, w.entries)
}

func TestSinkRecord_SurvivesCancelledContext(t *testing.T) {
	w := &memWriter{}
	s := NewSink(w, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Record(ctx, "send_rates", nil, errors.New("boom"))

	require.Len(t, w.entries, 1)
	require.NoError(t, w.ctxErr)
	require.Nil(t, w.entries[0].ChatID)
}

func TestSinkRecord_WriteFailureIsLoggedOnly(t *testing.T) {
	w := &memWriter{err: errors.New("disk full")}
	core, logs := observer.New(zap.DebugLevel)
	s := NewSink(w, zap.New(core))

	chat := int64(7)
	s.Record(context.Background(), "get_interval", &chat, errors.New("timeout"))

	require.Equal(t, 1, logs.FilterMessage("error log write failed").Len())
}

func TestSinkRecord_NilWriter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSink(nil, zap.New(core))

	s.Record(context.Background(), "top20", nil, errors.New("provider down"))

	require.Equal(t, 1, logs.Len())
}
