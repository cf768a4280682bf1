package model

import "time"

const (
	// NotificationTypeDocumentExpiry marks notifications produced by the expiry sweep.
	NotificationTypeDocumentExpiry = "document_expiry"

	ActionStatusPending   = "pending"
	ActionStatusResolved  = "resolved"
	ActionStatusDismissed = "dismissed"
)

// Notification is a persisted alert record.
// Archived and Read are only changed by user action; CreatedAt is immutable; Sent never goes back to false.
type Notification struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Message        string       `json:"message"`
	Type           string       `json:"type"`
	UserID         *string      `json:"user_id,omitempty"`
	OwnerID        *string      `json:"owner_id,omitempty"`
	DocumentID     *string      `json:"document_id,omitempty"`
	DocumentKind   DocumentKind `json:"document_kind,omitempty"`
	AlertType      AlertType    `json:"alert_type,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Read           bool         `json:"read"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	GroupKey       string       `json:"group_key,omitempty"`
	Archived       bool         `json:"archived"`
	AllowedRoles   []string     `json:"allowed_roles"`
	Attachment     string       `json:"attachment,omitempty"`
	ScheduledAt    *time.Time   `json:"scheduled_at,omitempty"`
	Sent           bool         `json:"sent"`
	ActionRequired bool         `json:"action_required"`
	ActionStatus   string       `json:"action_status,omitempty"`
	Icon           string       `json:"icon,omitempty"`
	Color          string       `json:"color,omitempty"`
}

// NotificationGroup is a compact view over notifications sharing (type, user_id, group_key).
type NotificationGroup struct {
	Type        string    `json:"type"`
	UserID      string    `json:"user_id"`
	GroupKey    string    `json:"group_key"`
	Count       int       `json:"count"`
	LastCreated time.Time `json:"last_created"`
	IDs         []string  `json:"ids"`
	Messages    []string  `json:"messages"`
}
