package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_FieldsAreJSON(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetOutput(&buf)

	NewLoggerWith(base).WithField("request_id", "abc").WithError(errors.New("boom")).Error("payment failed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "payment failed", line["msg"])
}

func TestLoggerFrom(t *testing.T) {
	assert.NotNil(t, LoggerFrom(context.Background()))

	l := NewLogger().WithField("k", "v")
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, LoggerFrom(ctx))
}

func TestInitMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})
}
