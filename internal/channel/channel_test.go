package channel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docexpiry/internal/config"
	"docexpiry/internal/model"
	"docexpiry/internal/realtime"
	"docexpiry/internal/storage"
	"docexpiry/internal/storage/mocks"
)

func testNotification() *model.Notification {
	uid := "user-1"
	return &model.Notification{
		ID:           "n-1",
		Title:        "Document expiring soon",
		Message:      "Acme: License LN-42 expires in 5 days",
		Type:         model.NotificationTypeDocumentExpiry,
		UserID:       &uid,
		AllowedRoles: []string{"admin"},
		Icon:         "🚨",
		Color:        "red",
		AlertType:    model.AlertOneWeek,
	}
}

func testMessage() Message {
	n := testNotification()
	return Message{Notification: n, Title: n.Title, Body: n.Message}
}

func TestDeliveryError(t *testing.T) {
	base := errors.New("timeout")
	err := error(&DeliveryError{Channel: NameSMS, RecipientID: "user-1", Err: base})

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "deliver via sms to user-1: timeout", err.Error())

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, NameSMS, de.Channel)
	assert.Equal(t, "deliver via broadcast: timeout", (&DeliveryError{Channel: NameBroadcast, Err: base}).Error())
}

func TestBroadcast_Send(t *testing.T) {
	hub := realtime.NewHub(2, zerolog.Nop())
	sub := hub.Register()
	b := NewBroadcast(hub)

	require.True(t, b.Configured())
	require.NoError(t, b.Send(context.Background(), nil, testMessage()))

	raw := <-sub.C()
	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	assert.NotContains(t, top, "event", "payload is the notification itself")
	assert.Contains(t, top, "id")

	var n model.Notification
	require.NoError(t, json.Unmarshal(raw, &n))
	assert.Equal(t, "n-1", n.ID)
	require.NotNil(t, n.UserID)
	assert.Equal(t, "user-1", *n.UserID)
	assert.Equal(t, []string{"admin"}, n.AllowedRoles)
}

func TestBroadcast_NotConfigured(t *testing.T) {
	b := NewBroadcast(nil)
	assert.False(t, b.Configured())
	assert.ErrorIs(t, b.Send(context.Background(), nil, testMessage()), ErrNotConfigured)
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []Mail
	fails error
}

func (r *recordingMailer) Deliver(_ context.Context, m Mail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return r.fails
}

func TestEmail_Send(t *testing.T) {
	ctx := context.Background()
	to := &Recipient{ID: "user-1", Scope: ScopeUser, Name: "Dana", Email: "dana@acme.test"}

	t.Run("renders and delivers", func(t *testing.T) {
		m := &recordingMailer{}
		e := NewEmail(m, "alerts@acme.test", nil, zerolog.Nop())

		require.NoError(t, e.Send(ctx, to, testMessage()))
		require.Len(t, m.sent, 1)
		got := m.sent[0]
		assert.Equal(t, "alerts@acme.test", got.From)
		assert.Equal(t, "dana@acme.test", got.To)
		assert.Equal(t, "Document expiring soon", got.Subject)
		assert.Contains(t, got.HTML, "Hello Dana")
		assert.Contains(t, got.HTML, "LN-42")
		assert.NotContains(t, got.HTML, "Action required")
		assert.Empty(t, got.Attachments)
	})

	t.Run("action required block", func(t *testing.T) {
		m := &recordingMailer{}
		e := NewEmail(m, "alerts@acme.test", nil, zerolog.Nop())
		msg := testMessage()
		msg.Notification.ActionRequired = true

		require.NoError(t, e.Send(ctx, to, msg))
		assert.Contains(t, m.sent[0].HTML, "Action required")
	})

	t.Run("attaches document file", func(t *testing.T) {
		files := new(mocks.MockStorage)
		files.On("Get", mock.Anything, "licenses/lic-1.pdf").
			Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{Size: 4, ContentType: "application/pdf"}, nil)
		m := &recordingMailer{}
		e := NewEmail(m, "alerts@acme.test", files, zerolog.Nop())
		msg := testMessage()
		msg.Attachment = "licenses/lic-1.pdf"

		require.NoError(t, e.Send(ctx, to, msg))
		require.Len(t, m.sent[0].Attachments, 1)
		att := m.sent[0].Attachments[0]
		assert.Equal(t, "lic-1.pdf", att.Filename)
		assert.Equal(t, "application/pdf", att.ContentType)
		assert.Equal(t, []byte("%PDF"), att.Content)
	})

	t.Run("missing file still sends", func(t *testing.T) {
		files := new(mocks.MockStorage)
		files.On("Get", mock.Anything, "gone.pdf").Return(nil, storage.ObjectInfo{}, errors.New("no such key"))
		m := &recordingMailer{}
		e := NewEmail(m, "alerts@acme.test", files, zerolog.Nop())
		msg := testMessage()
		msg.Attachment = "gone.pdf"

		require.NoError(t, e.Send(ctx, to, msg))
		assert.Empty(t, m.sent[0].Attachments)
	})

	t.Run("no address", func(t *testing.T) {
		e := NewEmail(&recordingMailer{}, "alerts@acme.test", nil, zerolog.Nop())
		assert.ErrorIs(t, e.Send(ctx, &Recipient{ID: "co-1"}, testMessage()), ErrNoAddress)
		assert.ErrorIs(t, e.Send(ctx, nil, testMessage()), ErrNoAddress)
	})

	t.Run("provider error surfaces", func(t *testing.T) {
		boom := errors.New("rejected")
		e := NewEmail(&recordingMailer{fails: boom}, "alerts@acme.test", nil, zerolog.Nop())
		assert.ErrorIs(t, e.Send(ctx, to, testMessage()), boom)
	})
}

func TestNewEmailFromConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.EmailConfig
		configured bool
	}{
		{"smtp configured", config.EmailConfig{Provider: "smtp", SMTP: config.SMTPConfig{Host: "mail", Port: 25, From: "a@b"}}, true},
		{"smtp missing host", config.EmailConfig{Provider: "smtp", SMTP: config.SMTPConfig{Port: 25, From: "a@b"}}, false},
		{"resend configured", config.EmailConfig{Provider: "resend", Resend: config.ResendConfig{APIKey: "re_x", From: "a@b"}}, true},
		{"resend missing key", config.EmailConfig{Provider: "resend", Resend: config.ResendConfig{From: "a@b"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEmailFromConfig(tt.cfg, nil, zerolog.Nop())
			assert.Equal(t, tt.configured, e.Configured())
			if !tt.configured {
				assert.ErrorIs(t, e.Send(context.Background(), &Recipient{Email: "x@y"}, testMessage()), ErrNotConfigured)
			}
		})
	}
}

func TestNewMsg(t *testing.T) {
	msg, err := newMsg(Mail{
		From:    "alerts@acme.test",
		To:      "dana@acme.test",
		Subject: "Documento próximo a vencer",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		Attachments: []MailAttachment{
			{Filename: "lic-1.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)

	var raw strings.Builder
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(raw.String()))
	require.NoError(t, err)
	assert.Equal(t, "<dana@acme.test>", parsed.Header.Get("To"))
	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Documento próximo a vencer", subject)

	mt, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mt)

	var sawAlternative bool
	var attachment []byte
	mr := multipart.NewReader(parsed.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if strings.HasPrefix(part.Header.Get("Content-Type"), "multipart/alternative") {
			sawAlternative = true
		}
		if part.FileName() == "lic-1.pdf" {
			enc, err := io.ReadAll(part)
			require.NoError(t, err)
			attachment, err = base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(enc)), ""))
			require.NoError(t, err)
		}
	}
	assert.True(t, sawAlternative, "text and html travel as alternatives")
	assert.Equal(t, "%PDF-1.4", string(attachment))
}

func TestNewMsg_RejectsInjectedHeaders(t *testing.T) {
	tests := []struct {
		name string
		mail Mail
	}{
		{"recipient", Mail{From: "alerts@acme.test", To: "dana@acme.test\r\nBcc: eve@evil.test", Subject: "s", Text: "t"}},
		{"sender", Mail{From: "alerts@acme.test\r\nReply-To: eve@evil.test", To: "dana@acme.test", Subject: "s", Text: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newMsg(tt.mail)
			assert.Error(t, err)
		})
	}
}

func TestSMTPMailer_DialFailure(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "alerts@acme.test"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := m.Deliver(ctx, Mail{From: "alerts@acme.test", To: "dana@acme.test", Subject: "s", Text: "t"})

	assert.ErrorContains(t, err, "smtp send")
}

func TestSMS_Send(t *testing.T) {
	var got struct {
		auth string
		req  smsRequest
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got.req)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := newSMS(config.SMSConfig{Endpoint: srv.URL, APIKey: "k-1", Sender: "ACME", RatePerSec: 10}, srv.Client())

	require.True(t, s.Configured())
	require.NoError(t, s.Send(context.Background(), &Recipient{ID: "user-1", Phone: "+34600000000"}, testMessage()))
	assert.Equal(t, "Bearer k-1", got.auth)
	assert.Equal(t, "ACME", got.req.From)
	assert.Equal(t, "+34600000000", got.req.To)
	assert.Equal(t, "Document expiring soon: Acme: License LN-42 expires in 5 days", got.req.Text)
}

func TestSMS_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid number", http.StatusBadRequest)
	}))
	defer srv.Close()

	ctx := context.Background()
	s := newSMS(config.SMSConfig{Endpoint: srv.URL, APIKey: "k", Sender: "ACME"}, srv.Client())

	err := s.Send(ctx, &Recipient{Phone: "123"}, testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid number")

	assert.ErrorIs(t, s.Send(ctx, &Recipient{ID: "co-1"}, testMessage()), ErrNoAddress)

	unconfigured := NewSMS(config.SMSConfig{}, time.Second)
	assert.False(t, unconfigured.Configured())
	assert.ErrorIs(t, unconfigured.Send(ctx, &Recipient{Phone: "123"}, testMessage()), ErrNotConfigured)
}

func TestSMSText_Truncates(t *testing.T) {
	long := strings.Repeat("é", 600)
	out := smsText(Message{Body: long})
	assert.Equal(t, maxSMSRunes, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))
}

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestEvent_Send(t *testing.T) {
	pub := &fakePublisher{}
	e := newEvent(pub, "docexpiry.events", "notification.created")
	fixed := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	require.NoError(t, e.Send(context.Background(), nil, testMessage()))

	assert.Equal(t, "docexpiry.events", pub.exchange)
	assert.Equal(t, "notification.created", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "n-1", pub.msg.CorrelationId)
	assert.NotEmpty(t, pub.msg.MessageId)

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(pub.msg.Body, &env))
	assert.Equal(t, pub.msg.MessageId, env.Meta.ID)
	assert.Equal(t, model.NotificationTypeDocumentExpiry, env.Meta.Type)
	assert.True(t, fixed.Equal(env.Meta.Time))
	assert.Equal(t, "n-1", env.Payload.ID)
}

func TestEvent_NotConfigured(t *testing.T) {
	var e *Event
	assert.False(t, e.Configured())
	assert.ErrorIs(t, newEvent(nil, "x", "y").Send(context.Background(), nil, testMessage()), ErrNotConfigured)
}
