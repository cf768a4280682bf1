package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docexpiry/internal/channel"
	"docexpiry/internal/i18n"
	"docexpiry/internal/model"
)

// Severity presentation.
const (
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorBlue   = "blue"

	IconWarning = "⚠️"
	IconUrgent  = "🚨"
	IconBell    = "🔔"
)

// ComposerConfig holds presentation defaults for generated notifications.
type ComposerConfig struct {
	Locale       string
	AllowedRoles []string
	TTL          time.Duration
}

// Composer turns an alert into a notification record and a channel message.
type Composer struct {
	labels *i18n.Bundle
	cfg    ComposerConfig
	newID  func() string
}

// NewComposer creates a composer. labels may be nil, in which case raw keys are shown.
func NewComposer(labels *i18n.Bundle, cfg ComposerConfig) *Composer {
	if cfg.Locale == "" {
		cfg.Locale = i18n.DefaultLocale
	}
	return &Composer{labels: labels, cfg: cfg, newID: uuid.NewString}
}

func (c *Composer) label(key string) string {
	if c.labels == nil {
		return key
	}
	return c.labels.Label(c.cfg.Locale, key)
}

// severity picks icon and color from days remaining.
func severity(alert model.Alert) (icon, color string) {
	switch {
	case alert.Type == model.AlertExpired:
		return IconWarning, ColorRed
	case alert.DaysRemaining <= 7:
		return IconUrgent, ColorRed
	case alert.DaysRemaining <= 30:
		return IconWarning, ColorOrange
	default:
		return IconBell, ColorBlue
	}
}

// GroupKey clusters notifications of the same threshold.
func GroupKey(t model.AlertType) string {
	return "expiry_" + string(t)
}

// Compose builds the notification for alert. now sets CreatedAt and ExpiresAt.
func (c *Composer) Compose(doc model.Document, alert model.Alert, now time.Time) *model.Notification {
	icon, color := severity(alert)
	expired := alert.Type == model.AlertExpired

	title := c.label("title_expiring")
	if expired {
		title = c.label("title_expired")
	}

	n := &model.Notification{
		ID:           c.newID(),
		Title:        title,
		Message:      c.messageText(alert),
		Type:         model.NotificationTypeDocumentExpiry,
		UserID:       alert.UserID,
		DocumentID:   &alert.DocumentID,
		DocumentKind: alert.DocumentKind,
		AlertType:    alert.Type,
		CreatedAt:    now.UTC(),
		GroupKey:     GroupKey(alert.Type),
		AllowedRoles: append([]string{}, c.cfg.AllowedRoles...),
		Attachment:   doc.FilePath,
		Sent:         true,
		Icon:         icon,
		Color:        color,
	}
	if alert.OwnerID != "" {
		owner := alert.OwnerID
		n.OwnerID = &owner
	}
	if c.cfg.TTL > 0 {
		exp := n.CreatedAt.Add(c.cfg.TTL)
		n.ExpiresAt = &exp
	}
	if expired {
		n.ActionRequired = true
		n.ActionStatus = model.ActionStatusPending
	}
	return n
}

// MessageFor builds the channel message carried by a stored notification.
func MessageFor(n *model.Notification) channel.Message {
	return channel.Message{
		Notification: n,
		Title:        n.Title,
		Body:         n.Message,
		Attachment:   n.Attachment,
	}
}

func (c *Composer) messageText(alert model.Alert) string {
	docType := alert.DocType
	if docType == "" {
		docType = string(alert.DocumentKind)
	}
	var b strings.Builder
	if alert.OwnerName != "" {
		b.WriteString(alert.OwnerName)
		b.WriteString(": ")
	}
	b.WriteString(c.label(docType))
	if alert.LicenseNumber != "" {
		b.WriteString(" ")
		b.WriteString(alert.LicenseNumber)
	}

	date := alert.ExpiryDate.Format("2006-01-02")
	switch d := alert.DaysRemaining; {
	case d < 0:
		fmt.Fprintf(&b, " expired %s ago (%s)", plural(-d, "day"), date)
	case d == 0:
		fmt.Fprintf(&b, " expires today (%s)", date)
	default:
		fmt.Fprintf(&b, " expires in %s (%s)", plural(d, "day"), date)
	}
	return b.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
