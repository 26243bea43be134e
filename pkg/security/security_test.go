package security_test

import (
	"context"
	"strings"
	"testing"

	"proofhire-backend/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGenerateToken(t *testing.T) {
	raw, hash, err := security.GenerateToken()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, hash, security.HashToken(raw))

	other, _, err := security.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	assert.Equal(t, security.HashToken("abc"), security.HashToken("abc"))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		security.HashToken("abc"))
}

func TestLookupResumeType(t *testing.T) {
	cases := []struct {
		mime string
		ext  string
		ok   bool
	}{
		{"application/pdf", "pdf", true},
		{"APPLICATION/PDF", "pdf", true},
		{"application/pdf; charset=binary", "pdf", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx", true},
		{"application/msword", "doc", true},
		{"image/png", "", false},
		{"application/octet-stream", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.mime, func(t *testing.T) {
			ft, ok := security.LookupResumeType(tc.mime)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.ext, ft.Extension)
		})
	}
}

func TestMatchesContent(t *testing.T) {
	pdf, _ := security.LookupResumeType("application/pdf")
	assert.True(t, pdf.MatchesContent([]byte("%PDF-1.7\n")))
	assert.False(t, pdf.MatchesContent([]byte{0x50, 0x4B, 0x03, 0x04}))
	assert.False(t, pdf.MatchesContent(nil))

	docx, _ := security.LookupResumeType("application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	assert.True(t, docx.MatchesContent([]byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", security.MaskEmail("jane@example.com"))
	assert.Equal(t, "***@example.com", security.MaskEmail("j@example.com"))
	assert.Equal(t, "***", security.MaskEmail("no-at-sign"))
}

func TestLogTokenInvalidNeverLogsRawToken(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := security.NewSecurityLogger(zap.New(core), "proofhire-backend", "test")

	raw := strings.Repeat("ab", 32)
	sl.LogTokenInvalid(context.Background(), raw, "not_found")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, string(security.EventTokenInvalid), entry.Message)
	for _, f := range entry.Context {
		assert.NotContains(t, f.String, raw)
	}
	assert.Equal(t, security.HashValue(raw), entry.ContextMap()["subject_value"])
}

func TestSeverityDrivesLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := security.NewSecurityLogger(zap.New(core), "proofhire-backend", "test")

	sl.LogContentFinding(context.Background(), security.EventContentThreat, "cand-1", "res-1", "Eicar-Test-Signature")
	sl.LogDataExport(context.Background(), "admin-1", "csv", 12)

	require.Equal(t, 2, logs.Len())
	threat, export := logs.All()[0], logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, threat.Level)
	assert.Equal(t, "CRITICAL", threat.ContextMap()["severity"])
	assert.Equal(t, zapcore.InfoLevel, export.Level)
	assert.True(t, security.IsHighOrAbove(security.EventCSRFViolation))
	assert.Equal(t, security.SeverityMEDIUM, security.GetSeverity("unmapped"))
}
