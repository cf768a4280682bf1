package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docexpiry/internal/model"
	"docexpiry/internal/repository"
	"docexpiry/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("notification not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoAttachment = errors.New("notification has no attachment")
)

const (
	defaultListLimit   = 50
	maxListLimit       = 200
	defaultGroupWindow = 7 * 24 * time.Hour
)

// CreateNotificationInput is a manually authored notification.
type CreateNotificationInput struct {
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           string     `json:"type"`
	UserID         *string    `json:"user_id,omitempty"`
	OwnerID        *string    `json:"owner_id,omitempty"`
	GroupKey       string     `json:"group_key,omitempty"`
	AllowedRoles   []string   `json:"allowed_roles,omitempty"`
	Attachment     string     `json:"attachment,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ActionRequired bool       `json:"action_required,omitempty"`
	Icon           string     `json:"icon,omitempty"`
	Color          string     `json:"color,omitempty"`
}

// NotificationListResult is the service-level DTO for paginated notifications.
type NotificationListResult struct {
	Items  []model.Notification `json:"data"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// NotificationService defines the use cases exposed over HTTP.
type NotificationService interface {
	// Create stores a notification. Unless it is scheduled in the future it is delivered right away.
	Create(ctx context.Context, in CreateNotificationInput) (*model.Notification, error)

	List(ctx context.Context, f repository.NotificationFilter) (*NotificationListResult, error)
	Get(ctx context.Context, id string) (*model.Notification, error)
	Archive(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string) error

	// UpdateActionStatus moves an action-required notification to resolved, dismissed or back to pending.
	UpdateActionStatus(ctx context.Context, id, status string) error

	Delete(ctx context.Context, id string) error

	// Groups aggregates notifications created within window (7 days when window <= 0).
	Groups(ctx context.Context, userID *string, window time.Duration) ([]model.NotificationGroup, error)

	// AttachmentURL returns a time-limited download URL for the notification's document file.
	AttachmentURL(ctx context.Context, id string) (string, error)
}

type notificationService struct {
	repo          repository.NotificationRepository
	deliverer     *Deliverer
	files         storage.Storage
	attachmentTTL time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

// NewNotificationService constructs a NotificationService. files may be nil when storage is not configured.
func NewNotificationService(repo repository.NotificationRepository, deliverer *Deliverer, files storage.Storage, attachmentTTL time.Duration, log zerolog.Logger) NotificationService {
	if attachmentTTL <= 0 {
		attachmentTTL = 15 * time.Minute
	}
	return &notificationService{
		repo:          repo,
		deliverer:     deliverer,
		files:         files,
		attachmentTTL: attachmentTTL,
		log:           log,
		now:           time.Now,
	}
}

func (s *notificationService) Create(ctx context.Context, in CreateNotificationInput) (*model.Notification, error) {
	in.Message = strings.TrimSpace(in.Message)
	in.Type = strings.TrimSpace(in.Type)
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if in.Type == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	n := &model.Notification{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Message:        in.Message,
		Type:           in.Type,
		UserID:         in.UserID,
		OwnerID:        in.OwnerID,
		CreatedAt:      now,
		ExpiresAt:      in.ExpiresAt,
		GroupKey:       in.GroupKey,
		AllowedRoles:   in.AllowedRoles,
		Attachment:     in.Attachment,
		ScheduledAt:    in.ScheduledAt,
		Sent:           in.ScheduledAt == nil || !in.ScheduledAt.After(now),
		ActionRequired: in.ActionRequired,
		Icon:           in.Icon,
		Color:          in.Color,
	}
	if n.AllowedRoles == nil {
		n.AllowedRoles = []string{}
	}
	if n.ActionRequired {
		n.ActionStatus = model.ActionStatusPending
	}

	stored, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, &PersistenceError{Op: "create notification", Err: err}
	}
	if s.deliverer != nil {
		msg := MessageFor(stored)
		// Live clients see every notification at creation; email and SMS wait for scheduled_at.
		s.deliverer.Fanout(ctx, msg)
		if stored.Sent {
			s.deliverer.Direct(ctx, msg, s.deliverer.Resolve(ctx, stored.UserID, stored.OwnerID))
		}
	}
	return stored, nil
}

func (s *notificationService) List(ctx context.Context, f repository.NotificationFilter) (*NotificationListResult, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("%w: from is after to", ErrInvalidInput)
	}
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &NotificationListResult{Items: res.Items, Total: res.Total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *notificationService) Get(ctx context.Context, id string) (*model.Notification, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return n, nil
}

func (s *notificationService) Archive(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	return mapNotFound(s.repo.Archive(ctx, id))
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	return mapNotFound(s.repo.MarkRead(ctx, id))
}

func (s *notificationService) UpdateActionStatus(ctx context.Context, id, status string) error {
	if id == "" {
		return ErrIDRequired
	}
	switch status {
	case model.ActionStatusPending, model.ActionStatusResolved, model.ActionStatusDismissed:
	default:
		return fmt.Errorf("%w: unknown action status %q", ErrInvalidInput, status)
	}
	return mapNotFound(s.repo.UpdateActionStatus(ctx, id, status))
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	return mapNotFound(s.repo.Delete(ctx, id))
}

func (s *notificationService) Groups(ctx context.Context, userID *string, window time.Duration) ([]model.NotificationGroup, error) {
	if window <= 0 {
		window = defaultGroupWindow
	}
	return s.repo.Groups(ctx, repository.GroupFilter{Since: s.now().UTC().Add(-window), UserID: userID})
}

func (s *notificationService) AttachmentURL(ctx context.Context, id string) (string, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if n.Attachment == "" || s.files == nil {
		return "", ErrNoAttachment
	}
	u, err := s.files.PresignGet(ctx, n.Attachment, s.attachmentTTL)
	if err != nil {
		return "", fmt.Errorf("presign attachment: %w", err)
	}
	return u, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
