package command

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/models"
	"github.com/vinocellar/account-service/internal/repository"
)

// memUsers is an in-memory UserStore. Emails are unique and matched
// regardless of case, like the lower(email) index.
type memUsers struct {
	mu    sync.Mutex
	byID  map[string]models.User
	errOn map[string]error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}, errOn: map[string]error{}}
}

func (m *memUsers) fail(op string) error { return m.errOn[op] }

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Create"); err != nil {
		return err
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return apperr.ErrEmailTaken
		}
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetByID"); err != nil {
		return nil, err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := m.fail("ExistsByEmail"); err != nil {
		return false, err
	}
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Update"); err != nil {
		return err
	}
	u, ok := m.byID[user.ID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.Name, u.Email, u.UpdatedAt = user.Name, user.Email, user.UpdatedAt
	m.byID[user.ID] = u
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePassword"); err != nil {
		return err
	}
	u, ok := m.byID[id]
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	m.byID[id] = u
	return nil
}

func (m *memUsers) SetTempPassword(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetTempPassword"); err != nil {
		return err
	}
	u, ok := m.byID[id]
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.TempPassword = &token
	m.byID[id] = u
	return nil
}

func (m *memUsers) ResetPassword(ctx context.Context, id, token, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ResetPassword"); err != nil {
		return err
	}
	u, ok := m.byID[id]
	if !ok || u.TempPassword == nil || *u.TempPassword != token {
		return apperr.ErrResetTokenMismatch
	}
	u.PasswordHash = passwordHash
	u.TempPassword = nil
	m.byID[id] = u
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Delete"); err != nil {
		return err
	}
	if _, ok := m.byID[id]; !ok {
		return apperr.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

// memCollections holds cellars and lists with their line items and records
// the order of delete calls.
type memCollections struct {
	collections map[string][]models.Collection // kind -> collections
	items       map[string][]models.LineItem   // collection id -> line items
	calls       []string
	errOn       map[string]error
}

func newMemCollections() *memCollections {
	return &memCollections{
		collections: map[string][]models.Collection{},
		items:       map[string][]models.LineItem{},
		errOn:       map[string]error{},
	}
}

func (m *memCollections) add(kind, userID, collectionID string, items ...models.LineItem) {
	m.collections[kind] = append(m.collections[kind], models.Collection{ID: collectionID, UserID: userID, Kind: kind})
	for i := range items {
		items[i].CollectionID = collectionID
	}
	m.items[collectionID] = append(m.items[collectionID], items...)
}

// itemsOf returns the line items still stored under the given parents.
func (m *memCollections) itemsOf(collectionIDs ...string) []models.LineItem {
	var out []models.LineItem
	for _, id := range collectionIDs {
		out = append(out, m.items[id]...)
	}
	return out
}

// owned returns the collections of kind still stored for userID.
func (m *memCollections) owned(kind, userID string) []models.Collection {
	var out []models.Collection
	for _, c := range m.collections[kind] {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

func (m *memCollections) DeleteLineItems(ctx context.Context, kind, userID string) (int64, error) {
	m.calls = append(m.calls, "items:"+kind)
	if err := m.errOn["items:"+kind]; err != nil {
		return 0, err
	}
	var n int64
	for _, c := range m.collections[kind] {
		if c.UserID == userID {
			n += int64(len(m.items[c.ID]))
			delete(m.items, c.ID)
		}
	}
	return n, nil
}

func (m *memCollections) DeleteCollections(ctx context.Context, kind, userID string) (int64, error) {
	m.calls = append(m.calls, "collections:"+kind)
	if err := m.errOn["collections:"+kind]; err != nil {
		return 0, err
	}
	var kept []models.Collection
	var n int64
	for _, c := range m.collections[kind] {
		if c.UserID != userID {
			kept = append(kept, c)
			continue
		}
		if len(m.items[c.ID]) > 0 {
			return 0, errors.New("foreign key violation: line items remain")
		}
		n++
	}
	m.collections[kind] = kept
	return n, nil
}

func (m *memCollections) Totals(ctx context.Context, kind, userID string) (models.CollectionTotals, error) {
	var t models.CollectionTotals
	for _, c := range m.collections[kind] {
		if c.UserID != userID {
			continue
		}
		t.Collections++
		for _, it := range m.items[c.ID] {
			t.Quantity += it.Quantity
			t.Value += float64(it.Quantity) * it.Price
		}
	}
	return t, nil
}

// memStore snapshots both stores before a transaction and restores them when
// the transaction function fails.
type memStore struct {
	users       *memUsers
	collections *memCollections
	txCount     int
}

func newMemStore() *memStore {
	return &memStore{users: newMemUsers(), collections: newMemCollections()}
}

func (s *memStore) Users() repository.UserStore { return s.users }

func (s *memStore) WithTx(ctx context.Context, fn func(users repository.UserStore, collections repository.CollectionStore) error) error {
	s.txCount++

	usersSnap := map[string]models.User{}
	for k, v := range s.users.byID {
		usersSnap[k] = v
	}
	collSnap := map[string][]models.Collection{}
	for k, v := range s.collections.collections {
		collSnap[k] = append([]models.Collection(nil), v...)
	}
	itemSnap := map[string][]models.LineItem{}
	for k, v := range s.collections.items {
		itemSnap[k] = append([]models.LineItem(nil), v...)
	}

	if err := fn(s.users, s.collections); err != nil {
		s.users.byID = usersSnap
		s.collections.collections = collSnap
		s.collections.items = itemSnap
		return err
	}
	return nil
}

type memViews struct {
	cached      map[string]models.UserView
	invalidated []string
}

func newMemViews() *memViews { return &memViews{cached: map[string]models.UserView{}} }

func (v *memViews) CacheUserView(ctx context.Context, view *models.UserView) {
	v.cached[view.ID] = *view
}

func (v *memViews) InvalidateUserView(ctx context.Context, userID string) {
	delete(v.cached, userID)
	v.invalidated = append(v.invalidated, userID)
}

type publishedEvent struct {
	Type string
	Data any
}

type memPublisher struct {
	events []publishedEvent
	err    error
}

func (p *memPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
	return nil
}

func (p *memPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memSessions is both the SessionStore used at login and the
// SessionTerminator used at account deletion.
type memSessions struct {
	byID      map[string]models.Session
	next      int
	createErr error
	deleteErr error
}

func newMemSessions() *memSessions { return &memSessions{byID: map[string]models.Session{}} }

func (m *memSessions) Create(ctx context.Context, userID, email string, remember bool) (*models.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.next++
	sess := models.Session{ID: "sid-" + strconv.Itoa(m.next), UserID: userID, Email: email, Remember: remember}
	m.byID[sess.ID] = sess
	return &sess, nil
}

func (m *memSessions) Delete(ctx context.Context, sessionID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.byID, sessionID)
	return nil
}

func (m *memSessions) DeleteAllForUser(ctx context.Context, userID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for id, s := range m.byID {
		if s.UserID == userID {
			delete(m.byID, id)
		}
	}
	return nil
}

func (m *memSessions) ids() []string {
	out := make([]string, 0, len(m.byID))
	for id := range m.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type memTokens struct {
	err error
}

func (t *memTokens) Issue(sess *models.Session) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return "token-for-" + sess.ID, nil
}
