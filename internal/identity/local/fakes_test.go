package local

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filedeck/internal/dbx"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/invites"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/otps"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/users"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*users.User
	rewards map[string][2]int
}

func (m *memUsers) Create(ctx context.Context, u *users.User) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if (u.Email != "" && x.Email == u.Email) || (u.Phone != "" && x.Phone == u.Phone) {
			return nil, users.ErrExists
		}
	}
	cp := *u
	cp.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m.byID[u.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) find(match func(*users.User) bool) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*users.User, error) {
	return m.find(func(u *users.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return m.find(func(u *users.User) bool { return u.Email != "" && strings.EqualFold(u.Email, email) })
}

func (m *memUsers) GetByPhone(ctx context.Context, phone string) (*users.User, error) {
	return m.find(func(u *users.User) bool { return u.Phone == phone })
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) AddRewards(ctx context.Context, id string, credits, xp int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rewards[id]
	m.rewards[id] = [2]int{r[0] + credits, r[1] + xp}
	return nil
}

type memOTPs struct {
	codes map[string]*otps.Code
}

func (m *memOTPs) Put(ctx context.Context, c *otps.Code) error {
	cp := *c
	m.codes[c.Phone] = &cp
	return nil
}

func (m *memOTPs) Get(ctx context.Context, phone string) (*otps.Code, error) {
	c, ok := m.codes[phone]
	if !ok {
		return nil, otps.ErrNotFound
	}
	return c, nil
}

func (m *memOTPs) Delete(ctx context.Context, phone string) error {
	delete(m.codes, phone)
	return nil
}

type memInvites struct {
	open map[string]bool
}

func (m *memInvites) Redeem(ctx context.Context, code, userID string) (bool, error) {
	if !m.open[code] {
		return false, nil
	}
	m.open[code] = false
	return true, nil
}

type fakeManager struct {
	users   *memUsers
	otps    *memOTPs
	invites *memInvites
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeManager) Users(dbx.DBTX) users.Repository              { return f.users }
func (f *fakeManager) OTPs(dbx.DBTX) otps.Repository                { return f.otps }
func (f *fakeManager) Invites(dbx.DBTX) invites.Repository          { return f.invites }

type recordingDelivery struct {
	sms  []string
	mail []string
}

func (r *recordingDelivery) SendSMS(ctx context.Context, phone, text string) error {
	r.sms = append(r.sms, phone+"|"+text)
	return nil
}

func (r *recordingDelivery) SendMail(ctx context.Context, to, subject, body string) error {
	r.mail = append(r.mail, to+"|"+subject+"|"+body)
	return nil
}

type fixture struct {
	svc      *Service
	repos    *fakeManager
	mock     sqlmock.Sqlmock
	delivery *recordingDelivery
	now      time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		repos: &fakeManager{
			users:   &memUsers{byID: map[string]*users.User{}, rewards: map[string][2]int{}},
			otps:    &memOTPs{codes: map[string]*otps.Code{}},
			invites: &memInvites{open: map[string]bool{}},
		},
		mock:     mock,
		delivery: &recordingDelivery{},
		now:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	opts = append([]Option{WithSender(f.delivery), WithMailer(f.delivery)}, opts...)
	f.svc, err = NewService(db, f.repos, Config{Secret: []byte("test-secret")}, logging.Nop(), opts...)
	require.NoError(t, err)
	f.svc.now = func() time.Time { return f.now }
	return f
}
