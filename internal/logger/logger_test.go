package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Levels(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		" DEBUG ": logrus.DebugLevel,
		"bogus":   logrus.InfoLevel,
		"":        logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, SetupLogger(in).GetLevel(), "level %q", in)
	}
}

func TestSetupLogger_JSONFormatter(t *testing.T) {
	l := SetupLogger("info")
	_, ok := l.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestSetupLogger_MessageKey(t *testing.T) {
	var buf bytes.Buffer
	l := SetupLogger("info")
	l.SetOutput(&buf)
	l.WithField("ad_id", 7).Info("Ad published")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Ad published", line["message"])
	assert.Equal(t, float64(7), line["ad_id"])
}
