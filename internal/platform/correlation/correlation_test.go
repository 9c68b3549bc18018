package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsUnique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestWithIDRoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "abc-123")
	id, ok := ID(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)
}

func TestIDAbsent(t *testing.T) {
	_, ok := ID(context.Background())
	assert.False(t, ok)

	_, ok = ID(WithID(context.Background(), ""))
	assert.False(t, ok)
}

func TestHandlerInjectsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithID(context.Background(), "req-42")
	logger.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), "correlation_id=req-42")
}

func TestHandlerWithoutID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("hello")

	assert.NotContains(t, buf.String(), "correlation_id")
}
