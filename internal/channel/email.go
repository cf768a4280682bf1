package channel

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"path"

	"github.com/rs/zerolog"

	"docexpiry/internal/config"
	"docexpiry/internal/storage"
)

// MaxAttachmentBytes caps the document file attached to an email.
const MaxAttachmentBytes = 10 << 20

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/notification.html"))

// Mail is a fully rendered email.
type Mail struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []MailAttachment
}

// MailAttachment is a file carried inline in a Mail.
type MailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Mailer hands a rendered mail to a provider.
type Mailer interface {
	Deliver(ctx context.Context, m Mail) error
}

// Email renders notifications to HTML and sends them through a Mailer.
type Email struct {
	mailer Mailer
	from   string
	files  storage.Storage
	log    zerolog.Logger
}

// NewEmail creates an email channel. files may be nil, in which case attachments are not sent.
func NewEmail(mailer Mailer, from string, files storage.Storage, log zerolog.Logger) *Email {
	return &Email{mailer: mailer, from: from, files: files, log: log}
}

// NewEmailFromConfig picks the provider named by cfg.Provider. An unconfigured provider yields
// a channel whose Configured reports false.
func NewEmailFromConfig(cfg config.EmailConfig, files storage.Storage, log zerolog.Logger) *Email {
	switch cfg.Provider {
	case "resend":
		if cfg.Resend.Configured() {
			return NewEmail(NewResendMailer(cfg.Resend.APIKey), cfg.Resend.From, files, log)
		}
	default:
		if cfg.SMTP.Configured() {
			return NewEmail(NewSMTPMailer(cfg.SMTP), cfg.SMTP.From, files, log)
		}
	}
	return NewEmail(nil, "", files, log)
}

var _ Channel = (*Email)(nil)

func (e *Email) Name() string { return NameEmail }

func (e *Email) Configured() bool { return e.mailer != nil && e.from != "" }

type emailData struct {
	Title          string
	Name           string
	Body           string
	Icon           string
	Color          string
	ActionRequired bool
}

// Send renders msg and delivers it to the recipient's email address.
func (e *Email) Send(ctx context.Context, to *Recipient, msg Message) error {
	if !e.Configured() {
		return ErrNotConfigured
	}
	if to == nil || to.Email == "" {
		return ErrNoAddress
	}

	data := emailData{Title: msg.Title, Name: to.Name, Body: msg.Body}
	if n := msg.Notification; n != nil {
		data.Icon = n.Icon
		data.Color = n.Color
		data.ActionRequired = n.ActionRequired
	}
	var body bytes.Buffer
	if err := emailTemplate.ExecuteTemplate(&body, "layout", data); err != nil {
		return err
	}

	m := Mail{
		From:    e.from,
		To:      to.Email,
		Subject: msg.Title,
		HTML:    body.String(),
		Text:    msg.Body,
	}
	if att, ok := e.attachment(ctx, msg.Attachment); ok {
		m.Attachments = append(m.Attachments, att)
	}
	return e.mailer.Deliver(ctx, m)
}

// attachment fetches the document file. A missing or oversized file is logged and the mail goes out without it.
func (e *Email) attachment(ctx context.Context, key string) (MailAttachment, bool) {
	if key == "" || e.files == nil {
		return MailAttachment{}, false
	}
	data, info, err := storage.ReadAll(ctx, e.files, key, MaxAttachmentBytes)
	if err != nil {
		ev := e.log.Warn().Str("event", "attachment_skipped").Str("key", key).Err(err)
		if errors.Is(err, storage.ErrTooLarge) {
			ev = ev.Int64("size", info.Size)
		}
		ev.Msg("email attachment skipped")
		return MailAttachment{}, false
	}
	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return MailAttachment{Filename: path.Base(key), ContentType: ct, Content: data}, true
}
