package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := &core.Config{
		AppName:          "StartUpLab",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "StartUpLab", Address: "noreply@localhost"},
		TestMode:         true,
	}
	core.ParseEmailTemplates(conf, nil)
	ResetSentMessages()

	svc := NewConsoleServiceMock(conf)
	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Awa", Address: "awa@test.cd"}},
			Subject:      "Document",
			TemplateName: "document_export",
			TemplateData: map[string]interface{}{"Name": "Awa", "Title": "Business plan", "ProjectName": "Kinshasa Eats"},
		},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "ignored"},
		&core.EmailMessage{To: []mail.Address{{Address: "empty@test.cd"}}, Subject: "no content"},
	)

	msgs := SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "awa@test.cd", msgs[0].To[0].Address)
	assert.True(t, strings.Contains(msgs[0].TextContent, "Kinshasa Eats"))
	assert.True(t, strings.Contains(msgs[0].TextContent, "L'équipe StartUpLab"))
	assert.NotEmpty(t, msgs[0].HTMLContent)

	ResetSentMessages()
	assert.Empty(t, SentMessages())
}
