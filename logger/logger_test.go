package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("not-a-level")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestConsentEventFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("debug", &buf)

	l.Consent("withdrawn", 42, "WITHDRAWN", logrus.Fields{"actor_id": 7})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Consent event", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "withdrawn", line["action"])
	assert.Equal(t, float64(42), line["submission_id"])
	assert.Equal(t, "WITHDRAWN", line["status"])
	assert.Equal(t, float64(7), line["actor_id"])
	assert.Contains(t, line, "timestamp")
}
