package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docexpiry/internal/model"
	"docexpiry/internal/repository"
)

const notificationColumns = `id, title, message, type, user_id, owner_id, document_id, document_kind, alert_type,
		created_at, read, expires_at, group_key, archived, allowed_roles, attachment, scheduled_at, sent,
		action_required, action_status, icon, color`

// NotificationPostgres is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationPostgres struct {
	db *sql.DB
}

// NewNotificationPostgres creates a new NotificationPostgres repository.
func NewNotificationPostgres(db *sql.DB) *NotificationPostgres {
	return &NotificationPostgres{db: db}
}

var _ repository.NotificationRepository = (*NotificationPostgres)(nil)

// Create inserts a notification row and returns the stored record.
func (r *NotificationPostgres) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	roles, err := json.Marshal(nonNilRoles(n.AllowedRoles))
	if err != nil {
		return nil, fmt.Errorf("encode allowed_roles: %w", err)
	}
	q := `
		INSERT INTO notifications (id, title, message, type, user_id, owner_id, document_id, document_kind, alert_type,
			created_at, read, expires_at, group_key, archived, allowed_roles, attachment, scheduled_at, sent,
			action_required, action_status, icon, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING ` + notificationColumns
	row := r.db.QueryRowContext(ctx, q,
		n.ID,
		n.Title,
		n.Message,
		n.Type,
		n.UserID,
		n.OwnerID,
		n.DocumentID,
		string(n.DocumentKind),
		string(n.AlertType),
		n.CreatedAt,
		n.Read,
		n.ExpiresAt,
		n.GroupKey,
		n.Archived,
		roles,
		n.Attachment,
		n.ScheduledAt,
		n.Sent,
		n.ActionRequired,
		n.ActionStatus,
		n.Icon,
		n.Color,
	)
	return scanNotification(row)
}

// GetByID fetches a single notification by its ID.
func (r *NotificationPostgres) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return n, err
}

// List returns notifications matching f, newest first, with LIMIT/OFFSET pagination.
func (r *NotificationPostgres) List(ctx context.Context, f repository.NotificationFilter) (*repository.PageResult[model.Notification], error) {
	where, args := buildNotificationWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM notifications%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		notificationColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Notification]{Items: items, Total: total}, nil
}

func buildNotificationWhere(f repository.NotificationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.OwnerID != nil {
		add("owner_id = $%d", *f.OwnerID)
	}
	if f.Archived != nil {
		add("archived = $%d", *f.Archived)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if f.Role != "" {
		add("(allowed_roles = '[]'::jsonb OR allowed_roles @> jsonb_build_array($%d::text))", f.Role)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Archive marks a notification as archived.
func (r *NotificationPostgres) Archive(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE notifications SET archived = true WHERE id = $1`, id)
}

// MarkRead marks a notification as read.
func (r *NotificationPostgres) MarkRead(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
}

// UpdateActionStatus sets action_status on an action-required notification.
func (r *NotificationPostgres) UpdateActionStatus(ctx context.Context, id, status string) error {
	return r.execOne(ctx, `UPDATE notifications SET action_status = $2 WHERE id = $1 AND action_required`, id, status)
}

// Delete removes a notification by ID.
func (r *NotificationPostgres) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM notifications WHERE id = $1`, id)
}

// ListDueScheduled returns deferred notifications whose time has come, oldest first.
// Archived rows are included; archiving hides a notification from lists, it does not cancel delivery.
func (r *NotificationPostgres) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Notification, error) {
	q := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE scheduled_at IS NOT NULL AND sent = false AND scheduled_at <= $1
		ORDER BY scheduled_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkSent flips sent to true exactly once; a second call reports false.
func (r *NotificationPostgres) MarkSent(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET sent = true WHERE id = $1 AND sent = false`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Groups aggregates notifications created since f.Since by (type, user_id, group_key).
func (r *NotificationPostgres) Groups(ctx context.Context, f repository.GroupFilter) ([]model.NotificationGroup, error) {
	args := []any{f.Since}
	where := "created_at >= $1"
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += " AND user_id = $2"
	}
	q := `
		SELECT type, COALESCE(user_id::text, ''), group_key, COUNT(*), MAX(created_at),
		       json_agg(id::text ORDER BY created_at DESC), json_agg(message ORDER BY created_at DESC)
		FROM notifications
		WHERE ` + where + `
		GROUP BY type, user_id, group_key
		ORDER BY MAX(created_at) DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]model.NotificationGroup, 0)
	for rows.Next() {
		var (
			g             model.NotificationGroup
			ids, messages []byte
		)
		if err := rows.Scan(&g.Type, &g.UserID, &g.GroupKey, &g.Count, &g.LastCreated, &ids, &messages); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ids, &g.IDs); err != nil {
			return nil, fmt.Errorf("decode group ids: %w", err)
		}
		if err := json.Unmarshal(messages, &g.Messages); err != nil {
			return nil, fmt.Errorf("decode group messages: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *NotificationPostgres) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var (
		n                           model.Notification
		userID, ownerID, documentID sql.NullString
		documentKind, alertType     string
		expiresAt, scheduledAt      sql.NullTime
		roles                       []byte
	)
	if err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Message,
		&n.Type,
		&userID,
		&ownerID,
		&documentID,
		&documentKind,
		&alertType,
		&n.CreatedAt,
		&n.Read,
		&expiresAt,
		&n.GroupKey,
		&n.Archived,
		&roles,
		&n.Attachment,
		&scheduledAt,
		&n.Sent,
		&n.ActionRequired,
		&n.ActionStatus,
		&n.Icon,
		&n.Color,
	); err != nil {
		return nil, err
	}
	n.UserID = nullStringPtr(userID)
	n.OwnerID = nullStringPtr(ownerID)
	n.DocumentID = nullStringPtr(documentID)
	n.DocumentKind = model.DocumentKind(documentKind)
	n.AlertType = model.AlertType(alertType)
	n.ExpiresAt = nullTimePtr(expiresAt)
	n.ScheduledAt = nullTimePtr(scheduledAt)
	n.AllowedRoles = []string{}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &n.AllowedRoles); err != nil {
			return nil, fmt.Errorf("decode allowed_roles: %w", err)
		}
	}
	return &n, nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nonNilRoles(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}
