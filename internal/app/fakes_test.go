package app

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"yearbook_alumni/internal/domain/alumni"
	"yearbook_alumni/internal/domain/directory"
	"yearbook_alumni/internal/domain/notification"
	idb "yearbook_alumni/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// memState is an in-memory alumni.Repository. It does no locking itself;
// memStore serialises transactions around it.
type memState struct {
	badges   map[int64]alumni.Badge
	requests map[int64]alumni.Request
	blocks   []alumni.Block
	students []alumni.Student
	nextID   int64

	failCreateRequest error
	failCreateStudent error
}

func (m *memState) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memState) snapshot() *memState {
	cp := *m
	cp.badges = make(map[int64]alumni.Badge, len(m.badges))
	for k, v := range m.badges {
		cp.badges[k] = v
	}
	cp.requests = make(map[int64]alumni.Request, len(m.requests))
	for k, v := range m.requests {
		cp.requests[k] = v
	}
	cp.blocks = append([]alumni.Block(nil), m.blocks...)
	cp.students = append([]alumni.Student(nil), m.students...)
	return &cp
}

func (m *memState) LockUser(ctx context.Context, userID int64) error { return nil }

func (m *memState) CreateBadge(ctx context.Context, b *alumni.Badge) error {
	b.ID = m.id()
	m.badges[b.ID] = *b
	return nil
}

func (m *memState) GetBadgeByID(ctx context.Context, id int64) (*alumni.Badge, error) {
	b, ok := m.badges[id]
	if !ok {
		return nil, idb.ErrBadgeNotFound
	}
	return &b, nil
}

func (m *memState) ListBadgesByUser(ctx context.Context, userID int64) ([]*alumni.Badge, error) {
	var out []*alumni.Badge
	for _, b := range m.badges {
		if b.UserID == userID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memState) ListBadgesBySchool(ctx context.Context, schoolID int64, schoolName string) ([]*alumni.Badge, error) {
	var out []*alumni.Badge
	for _, b := range m.badges {
		if (b.SchoolID.Valid && b.SchoolID.Int64 == schoolID) || (!b.SchoolID.Valid && b.School == schoolName) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memState) UpdateBadgeStatus(ctx context.Context, id int64, status alumni.BadgeStatus) error {
	b, ok := m.badges[id]
	if !ok {
		return idb.ErrBadgeNotFound
	}
	b.Status = status
	m.badges[id] = b
	return nil
}

func (m *memState) DeleteBadge(ctx context.Context, id int64) error {
	if _, ok := m.badges[id]; !ok {
		return idb.ErrBadgeNotFound
	}
	delete(m.badges, id)
	for rid, r := range m.requests {
		if r.BadgeID.Valid && r.BadgeID.Int64 == id {
			r.BadgeID.Valid = false
			r.BadgeID.Int64 = 0
			m.requests[rid] = r
		}
	}
	return nil
}

func (m *memState) CreateRequest(ctx context.Context, r *alumni.Request) error {
	if m.failCreateRequest != nil {
		return m.failCreateRequest
	}
	for _, existing := range m.requests {
		if existing.UserID == r.UserID && existing.SchoolID == r.SchoolID && existing.Status == alumni.RequestStatusPending {
			return idb.ErrDuplicatePendingRequest
		}
	}
	r.ID = m.id()
	m.requests[r.ID] = *r
	return nil
}

func (m *memState) GetRequestByID(ctx context.Context, id int64) (*alumni.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, idb.ErrRequestNotFound
	}
	return &r, nil
}

func (m *memState) GetRequestForUpdate(ctx context.Context, id int64) (*alumni.Request, error) {
	return m.GetRequestByID(ctx, id)
}

func (m *memState) HasPendingRequest(ctx context.Context, userID, schoolID int64) (bool, error) {
	for _, r := range m.requests {
		if r.UserID == userID && r.SchoolID == schoolID && r.Status == alumni.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memState) CountRequestsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	n := 0
	for _, r := range m.requests {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memState) sortedRequests(keep func(alumni.Request) bool) []*alumni.Request {
	var out []*alumni.Request
	for _, r := range m.requests {
		if keep(r) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memState) ListRequestsBySchool(ctx context.Context, schoolID int64) ([]*alumni.Request, error) {
	return m.sortedRequests(func(r alumni.Request) bool { return r.SchoolID == schoolID }), nil
}

func (m *memState) ListPendingRequestsCreatedBefore(ctx context.Context, before time.Time) ([]*alumni.Request, error) {
	return m.sortedRequests(func(r alumni.Request) bool {
		return r.Status == alumni.RequestStatusPending && r.CreatedAt.Before(before)
	}), nil
}

func (m *memState) UpdateRequestReview(ctx context.Context, r *alumni.Request) error {
	if _, ok := m.requests[r.ID]; !ok {
		return idb.ErrRequestNotFound
	}
	m.requests[r.ID] = *r
	return nil
}

func (m *memState) DeleteRequest(ctx context.Context, id int64) error {
	if _, ok := m.requests[id]; !ok {
		return idb.ErrRequestNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *memState) CreateBlock(ctx context.Context, b *alumni.Block) error {
	b.ID = m.id()
	m.blocks = append(m.blocks, *b)
	return nil
}

func (m *memState) LatestBlockUntil(ctx context.Context, userID, schoolID int64) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, b := range m.blocks {
		if b.UserID != userID || b.SchoolID != schoolID {
			continue
		}
		if !found || b.BlockedUntil.After(latest) {
			latest = b.BlockedUntil
			found = true
		}
	}
	return latest, found, nil
}

func (m *memState) CreateStudent(ctx context.Context, s *alumni.Student) error {
	if m.failCreateStudent != nil {
		return m.failCreateStudent
	}
	s.ID = m.id()
	m.students = append(m.students, *s)
	return nil
}

// memStore runs every transaction under one mutex and rolls back by
// restoring a snapshot when fn fails.
type memStore struct {
	*memState
	mu sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{memState: &memState{
		badges:   make(map[int64]alumni.Badge),
		requests: make(map[int64]alumni.Request),
	}}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx alumni.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.memState.snapshot()
	if err := fn(s.memState); err != nil {
		*s.memState = *saved
		return err
	}
	return nil
}

// Reads outside a transaction take the same mutex as WithinTx.

func (s *memStore) GetBadgeByID(ctx context.Context, id int64) (*alumni.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memState.GetBadgeByID(ctx, id)
}

func (s *memStore) GetRequestByID(ctx context.Context, id int64) (*alumni.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memState.GetRequestByID(ctx, id)
}

func (s *memStore) pendingFor(userID, schoolID int64) int {
	n := 0
	for _, r := range s.requests {
		if r.UserID == userID && r.SchoolID == schoolID && r.Status == alumni.RequestStatusPending {
			n++
		}
	}
	return n
}

type fakeDirectory struct {
	users   map[int64]*directory.User
	schools map[int64]*directory.School
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:   make(map[int64]*directory.User),
		schools: make(map[int64]*directory.School),
	}
}

func (d *fakeDirectory) GetUser(ctx context.Context, id int64) (*directory.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

func (d *fakeDirectory) GetSchoolByID(ctx context.Context, id int64) (*directory.School, error) {
	s, ok := d.schools[id]
	if !ok {
		return nil, idb.ErrSchoolNotFound
	}
	return s, nil
}

func (d *fakeDirectory) GetSchoolByName(ctx context.Context, name string) (*directory.School, error) {
	var found *directory.School
	for _, s := range d.schools {
		if s.Name == name && (found == nil || s.ID < found.ID) {
			found = s
		}
	}
	if found == nil {
		return nil, idb.ErrSchoolNotFound
	}
	return found, nil
}

type sentNotification struct {
	UserID    int64
	Type      notification.Type
	Title     string
	Message   string
	RelatedID int64
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingSink) Send(ctx context.Context, userID int64, t notification.Type, title, message string, relatedID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Type: t, Title: title, Message: message, RelatedID: relatedID})
}

func (r *recordingSink) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

type memNotificationRepo struct {
	mu        sync.Mutex
	items     []*notification.Notification
	createErr error
}

func (r *memNotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = int64(len(r.items) + 1)
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *memNotificationRepo) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return idb.ErrNotificationNotFound
}

type recordingPublisher struct {
	events []notification.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e notification.Event) error {
	p.events = append(p.events, e)
	return p.err
}

type sentMessage struct {
	ChatID  int64
	Text    string
	Options *telebot.SendOptions
}

type recordingTelegram struct {
	messages []sentMessage
	err      error
}

func (c *recordingTelegram) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	c.messages = append(c.messages, sentMessage{ChatID: chatID, Text: text, Options: options})
	return c.err
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
