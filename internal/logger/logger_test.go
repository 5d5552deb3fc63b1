package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter("prod", &buf)

	l.Info("order created", "order_id", "o1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "order created", line["msg"])
	assert.Equal(t, "o1", line["order_id"])
}

func TestNew_DevIncludesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter("dev", &buf)

	l.Debug("cart retry", "attempt", 2)
	assert.Contains(t, buf.String(), "cart retry")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := newWithWriter("dev", &buf).With("request_id", "r-1")
	ctx := Inject(context.Background(), l)

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=r-1")
}
