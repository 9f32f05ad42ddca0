package mailx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("noreply@daybook.app", "ada@example.com", "Reset\r\nBcc: evil@example.com", "hi")
	require.NoError(t, err)

	s := string(msg)
	require.Contains(t, s, "To: ada@example.com\r\n")
	require.Contains(t, s, "Subject: Reset  Bcc: evil@example.com\r\n")
	require.NotContains(t, s, "\r\nBcc:")
}

func TestBuildMessageRejectsHeaderInjection(t *testing.T) {
	_, err := buildMessage("noreply@daybook.app", "ada@example.com\r\nBcc: x@y.z", "s", "b")
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = buildMessage("noreply@daybook.app", "not-an-address", "s", "b")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := LogMailer{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, m.Send(context.Background(), "ada@example.com", "Reset your password", "link"))
	require.Contains(t, buf.String(), `"to":"ada@example.com"`)
}

func TestHost(t *testing.T) {
	require.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	require.Equal(t, "smtp.example.com", host("smtp.example.com"))
}
