// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debtwise/debtwise/internal/requestid"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debtwise", "1.0.0", "json", &buf)

	logger.Info("test message")

	var entry map[string]any
	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err, "Failed to parse JSON: %s", buf.String())

	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "debtwise", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time", "time field missing")
	assert.Contains(t, entry, "level", "level field missing")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debtwise", "1.0.0", "text", &buf)

	logger.Info("test message")

	output := buf.String()
	assert.Contains(t, output, "test message", "Output missing message")
	assert.Contains(t, output, "debtwise", "Output missing service")
}

func TestHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debtwise", "1.0.0", "json", &buf)

	ctx := requestid.WithContext(context.Background(), "req-123")
	logger.InfoContext(ctx, "with request")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
}

func TestHandler_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debtwise", "1.0.0", "json", &buf)

	logger.InfoContext(context.Background(), "no request")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "request_id")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debtwise", "1.0.0", "json", &buf)

	logger.With("key", "value").WithGroup("grp").Info("grouped", "inner", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "value", entry["key"])
	grp, ok := entry["grp"].(map[string]any)
	require.True(t, ok, "group missing: %s", buf.String())
	assert.EqualValues(t, 1, grp["inner"])
}

func TestHandler_Enabled(t *testing.T) {
	logger := Setup("debtwise", "1.0.0", "json", &bytes.Buffer{})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
