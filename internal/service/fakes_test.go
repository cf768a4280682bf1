package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"docexpiry/internal/channel"
	"docexpiry/internal/expiry"
	"docexpiry/internal/model"
	"docexpiry/internal/repository"
)

type sendCall struct {
	to  *channel.Recipient
	msg channel.Message
}

type fakeChannel struct {
	name       string
	configured bool
	err        error

	mu    sync.Mutex
	calls []sendCall
}

func newFakeChannel(name string) *fakeChannel {
	return &fakeChannel{name: name, configured: true}
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Send(_ context.Context, to *channel.Recipient, msg channel.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{to: to, msg: msg})
	if f.err != nil {
		return f.err
	}
	if f.name == channel.NameEmail && to != nil && to.Email == "" {
		return channel.ErrNoAddress
	}
	return nil
}

func (f *fakeChannel) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		if c.to == nil {
			out = append(out, "")
			continue
		}
		out = append(out, c.to.ID)
	}
	sort.Strings(out)
	return out
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memSource is an in-memory document collection that honours threshold flags.
type memSource struct {
	kind    model.DocumentKind
	mu      sync.Mutex
	docs    []model.Document
	listErr error
	markErr error
}

func (s *memSource) Kind() model.DocumentKind { return s.kind }

func (s *memSource) ListExpiring(_ context.Context, today time.Time, withinDays int) ([]model.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.ExpiryDate == nil {
			continue
		}
		if days := expiry.DaysUntil(today, *d.ExpiryDate); days >= 0 && days <= withinDays {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memSource) ListExpired(_ context.Context, today time.Time) ([]model.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.ExpiryDate != nil && expiry.DaysUntil(today, *d.ExpiryDate) < 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memSource) MarkThresholdSent(_ context.Context, id string, t model.AlertType) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			expiry.MarkSent(&s.docs[i].Sent, t)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memNotifications is an in-memory notification store.
type memNotifications struct {
	mu        sync.Mutex
	items     []model.Notification
	createErr error
}

var _ repository.NotificationRepository = (*memNotifications)(nil)

func (m *memNotifications) Create(_ context.Context, n *model.Notification) (*model.Notification, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *n)
	out := *n
	return &out, nil
}

func (m *memNotifications) find(id string) (*model.Notification, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memNotifications) GetByID(_ context.Context, id string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.find(id)
	if err != nil {
		return nil, err
	}
	out := *n
	return &out, nil
}

func (m *memNotifications) List(_ context.Context, _ repository.NotificationFilter) (*repository.PageResult[model.Notification], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]model.Notification{}, m.items...)
	return &repository.PageResult[model.Notification]{Items: items, Total: len(items)}, nil
}

func (m *memNotifications) update(id string, fn func(n *model.Notification)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.find(id)
	if err != nil {
		return err
	}
	fn(n)
	return nil
}

func (m *memNotifications) Archive(_ context.Context, id string) error {
	return m.update(id, func(n *model.Notification) { n.Archived = true })
}

func (m *memNotifications) MarkRead(_ context.Context, id string) error {
	return m.update(id, func(n *model.Notification) { n.Read = true })
}

func (m *memNotifications) UpdateActionStatus(_ context.Context, id, status string) error {
	return m.update(id, func(n *model.Notification) { n.ActionStatus = status })
}

func (m *memNotifications) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memNotifications) ListDueScheduled(_ context.Context, now time.Time) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.items {
		if n.ScheduledAt != nil && !n.Sent && !n.ScheduledAt.After(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotifications) MarkSent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.find(id)
	if err != nil {
		return false, nil
	}
	if n.Sent {
		return false, nil
	}
	n.Sent = true
	return true, nil
}

func (m *memNotifications) Groups(_ context.Context, f repository.GroupFilter) ([]model.NotificationGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := map[string]*model.NotificationGroup{}
	var order []string
	for _, n := range m.items {
		if n.CreatedAt.Before(f.Since) {
			continue
		}
		uid := ""
		if n.UserID != nil {
			uid = *n.UserID
		}
		if f.UserID != nil && uid != *f.UserID {
			continue
		}
		key := n.Type + "|" + uid + "|" + n.GroupKey
		g, ok := idx[key]
		if !ok {
			g = &model.NotificationGroup{Type: n.Type, UserID: uid, GroupKey: n.GroupKey}
			idx[key] = g
			order = append(order, key)
		}
		g.Count++
		g.IDs = append(g.IDs, n.ID)
		g.Messages = append(g.Messages, n.Message)
		if n.CreatedAt.After(g.LastCreated) {
			g.LastCreated = n.CreatedAt
		}
	}
	out := make([]model.NotificationGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *idx[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastCreated.After(out[j].LastCreated) })
	return out, nil
}

type fakeDirectory struct {
	users  map[string]*repository.Contact
	owners map[string]*repository.Contact
}

func (d *fakeDirectory) ResolveUser(_ context.Context, id string) (*repository.Contact, error) {
	if c, ok := d.users[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (d *fakeDirectory) ResolveOwner(_ context.Context, id string) (*repository.Contact, error) {
	if c, ok := d.owners[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[string]*repository.Contact{
			"user-1": {ID: "user-1", Name: "Dana Ruiz", Email: "dana@acme.test", Phone: "+34600000001"},
		},
		owners: map[string]*repository.Contact{
			"co-1": {ID: "co-1", Name: "Acme", Email: "ops@acme.test", Phone: "+34600000002"},
		},
	}
}

func strPtr(s string) *string { return &s }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var sweepDay = time.Date(2025, time.June, 1, 8, 30, 0, 0, time.UTC)
