package prioritizer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"text/template"

	"github.com/samber/lo"

	"github.com/bert143-oss/email-scribe-connect/pkg/helpers"
	"github.com/bert143-oss/email-scribe-connect/pkg/types"
)

//go:embed templates/classify_emails.tmpl
var classifyEmailsTemplate string

type classifyEmailsPrompt struct {
	Schema string
}

type promptEmail struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// buildPrompt renders the system instructions and the user payload for one
// classification call. The batch is capped deterministically and each body
// clipped before embedding; the snippet stands in when a body is missing.
func (s *Service) buildPrompt(emails []types.Email) (string, string, error) {
	schema, err := helpers.SchemaJSON(ClassificationResult{})
	if err != nil {
		return "", "", err
	}

	systemTmpl := template.Must(template.New("classify_emails").Parse(classifyEmailsTemplate))
	var buf bytes.Buffer
	if err := systemTmpl.Execute(&buf, classifyEmailsPrompt{Schema: schema}); err != nil {
		return "", "", err
	}

	batch := emails
	if len(batch) > s.cfg.BatchLimit {
		batch = batch[:s.cfg.BatchLimit]
	}

	rows := lo.Map(batch, func(e types.Email, _ int) promptEmail {
		body := e.Body
		if body == "" {
			body = e.Snippet
		}
		return promptEmail{
			ID:      e.ID,
			Subject: e.Subject,
			From:    e.From,
			Date:    e.Date,
			Body:    helpers.Truncate(body, s.cfg.BodyLimit, ""),
		}
	})

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", "", err
	}

	return buf.String(), "Prioritize the following emails:\n\n" + string(data), nil
}
