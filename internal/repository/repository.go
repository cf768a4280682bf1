package repository

// Package repository contains data access abstractions.
// Implementations live in subpackages (e.g., postgres); no business logic here.

import (
	"context"
	"errors"
	"time"

	"docexpiry/internal/model"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// DocumentSource is the expirable capability every document collection exposes.
type DocumentSource interface {
	// Kind names the collection.
	Kind() model.DocumentKind

	// ListExpiring returns active documents expiring between today and today+withinDays inclusive.
	ListExpiring(ctx context.Context, today time.Time, withinDays int) ([]model.Document, error)

	// ListExpired returns active documents whose expiry date is before today.
	ListExpired(ctx context.Context, today time.Time) ([]model.Document, error)

	// MarkThresholdSent sets the dedup flag for the given threshold. Flags are never cleared.
	MarkThresholdSent(ctx context.Context, documentID string, threshold model.AlertType) error
}

// NotificationFilter narrows List. Nil pointers and zero values mean "no constraint".
type NotificationFilter struct {
	UserID   *string
	OwnerID  *string
	Archived *bool
	From     *time.Time
	To       *time.Time
	Role     string
	Limit    int
	Offset   int
}

// GroupFilter narrows Groups.
type GroupFilter struct {
	Since  time.Time
	UserID *string
}

// NotificationRepository persists notification records.
type NotificationRepository interface {
	// Create inserts a notification and returns the stored record with DB-assigned values.
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)

	// GetByID returns ErrNotFound when the row is missing.
	GetByID(ctx context.Context, id string) (*model.Notification, error)

	// List returns a page of notifications, newest first, and the total matching count.
	List(ctx context.Context, f NotificationFilter) (*PageResult[model.Notification], error)

	// Archive, MarkRead and UpdateActionStatus return ErrNotFound when no row matched.
	Archive(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string) error
	UpdateActionStatus(ctx context.Context, id, status string) error

	// Delete removes a notification by ID. It returns ErrNotFound when no row matched.
	Delete(ctx context.Context, id string) error

	// ListDueScheduled returns unsent notifications whose scheduled_at <= now, archived or not.
	ListDueScheduled(ctx context.Context, now time.Time) ([]model.Notification, error)

	// MarkSent flips sent to true. It reports false when the row was already sent.
	MarkSent(ctx context.Context, id string) (bool, error)

	// Groups aggregates notifications by (type, user_id, group_key), most recent activity first.
	Groups(ctx context.Context, f GroupFilter) ([]model.NotificationGroup, error)
}

// Contact is a resolved delivery address for a user or a company.
type Contact struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Directory resolves users and owners (companies) to contacts.
type Directory interface {
	ResolveUser(ctx context.Context, userID string) (*Contact, error)
	ResolveOwner(ctx context.Context, ownerID string) (*Contact, error)
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
