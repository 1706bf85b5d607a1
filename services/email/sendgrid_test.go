package emailsvc

import (
	"encoding/base64"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core"
)

func newSendgridService(t *testing.T) (*sendgridService, *core.Config) {
	conf := &core.Config{
		AppName:          "StartUpLab",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "StartUpLab", Address: "noreply@localhost"},
		SendgridApiKey:   "SG.test",
		MediaDir:         t.TempDir(),
		TestMode:         true,
	}
	core.ParseEmailTemplates(conf, nil)
	svc, ok := NewSendgridService(conf, nil).(*sendgridService)
	require.True(t, ok)
	return svc, conf
}

func TestSendgridService_prepare(t *testing.T) {
	svc, conf := newSendgridService(t)
	awa := mail.Address{Name: "Awa", Address: "awa@test.cd"}

	t.Run("document export", func(t *testing.T) {
		pdf := []byte("%PDF-1.3 business plan")
		require.NoError(t, os.MkdirAll(filepath.Join(conf.MediaDir, "pdf"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(conf.MediaDir, "pdf", "business-plan-1.pdf"), pdf, 0o644))

		msg, err := core.NewDocumentMessage(conf, awa, "Business plan", "Kinshasa Eats", "pdf/business-plan-1.pdf")
		require.NoError(t, err)
		require.NoError(t, msg.Render())

		m := svc.prepare(*msg)
		assert.Equal(t, "noreply@localhost", m.From.Address)
		require.Len(t, m.Personalizations, 1)
		assert.Equal(t, "[StartUpLab] Kinshasa Eats - Business plan", m.Personalizations[0].Subject)
		if assert.Len(t, m.Personalizations[0].To, 1) {
			assert.Equal(t, "awa@test.cd", m.Personalizations[0].To[0].Address)
		}

		require.Len(t, m.Content, 2)
		assert.Equal(t, "text/plain", m.Content[0].Type)
		assert.True(t, strings.Contains(m.Content[0].Value, "Business plan"))
		assert.Equal(t, "text/html", m.Content[1].Type)

		require.Len(t, m.Attachments, 1)
		at := m.Attachments[0]
		assert.Equal(t, "business-plan-1.pdf", at.Filename)
		assert.Equal(t, "application/pdf", at.Type)
		assert.Equal(t, "attachment", at.Disposition)
		decoded, err := base64.StdEncoding.DecodeString(at.Content)
		require.NoError(t, err)
		assert.Equal(t, pdf, decoded)

		assert.Equal(t, []string{"document_export"}, m.Categories)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := core.NewDocumentMessage(conf, awa, "Pitch", "Kinshasa Eats", "pdf/lol.pdf")
		assert.Error(t, err)
	})

	t.Run("text only", func(t *testing.T) {
		msg := &core.EmailMessage{
			To:      []mail.Address{awa},
			Cc:      []mail.Address{{Address: "cc@test.cd"}},
			Subject: "Bienvenue",
			BodyStr: "Bonjour Awa",
		}
		require.NoError(t, msg.Render())

		m := svc.prepare(*msg)
		require.Len(t, m.Content, 1)
		assert.Equal(t, "text/plain", m.Content[0].Type)
		assert.Equal(t, "Bonjour Awa", m.Content[0].Value)
		assert.Len(t, m.Personalizations[0].CC, 1)
		assert.Empty(t, m.Attachments)
		assert.Empty(t, m.Categories)
	})

	t.Run("attachment only", func(t *testing.T) {
		msg := &core.EmailMessage{To: []mail.Address{awa}, Subject: "Export"}
		require.NoError(t, msg.Attach(strings.NewReader("a;b"), "export.csv", "text/csv"))

		m := svc.prepare(*msg)
		require.Len(t, m.Content, 1)
		assert.Equal(t, "Export", m.Content[0].Value)
		require.Len(t, m.Attachments, 1)
		assert.Equal(t, "text/csv", m.Attachments[0].Type)
	})
}
