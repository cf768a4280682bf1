package channel

import (
	"context"

	"github.com/resend/resend-go/v3"
)

type resendMailer struct {
	client *resend.Client
}

// NewResendMailer creates a Mailer backed by the Resend API.
func NewResendMailer(apiKey string) Mailer {
	return &resendMailer{client: resend.NewClient(apiKey)}
}

func (r *resendMailer) Deliver(ctx context.Context, m Mail) error {
	params := &resend.SendEmailRequest{
		From:    m.From,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	}
	for _, a := range m.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}
	_, err := r.client.Emails.SendWithContext(ctx, params)
	return err
}
