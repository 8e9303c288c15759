package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/database/dbtest"
	"kidcoins/internal/events"
	"kidcoins/internal/logger"
	"kidcoins/internal/metrics"
	"kidcoins/internal/models"
	"kidcoins/internal/security"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db      *database.DB
	svc     *Services
	events  *events.Recorder
	metrics *metrics.Metrics
	clock   *testClock
	mailer  *fakeMailer
	revoked *security.MemoryRevocationList
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) IsEnabled() bool { return true }

func (m *fakeMailer) SendInvitationCode(ctx context.Context, toEmail, parentName, code string, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail+":"+code)
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:      dbtest.New(t),
		events:  &events.Recorder{},
		metrics: metrics.New(),
		clock:   &testClock{now: time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)},
		mailer:  &fakeMailer{},
		revoked: security.NewMemoryRevocationList(),
	}
	opts := Options{
		DB:      f.db,
		Logger:  logger.Discard(),
		Events:  f.events,
		Metrics: f.metrics,
		Now:     f.clock.Now,
	}
	tokens := security.NewTokenManager(testSecret, 24*time.Hour)
	tokens.Now = f.clock.Now
	f.revoked.Now = f.clock.Now
	f.svc = New(opts, Settings{StreakLocation: time.UTC, InviteCodeTTL: DefaultInviteCodeTTL}, tokens, f.revoked, f.mailer)
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.Role) Actor {
	t.Helper()
	u := dbtest.CreateUser(t, f.db, email, role)
	return Actor{ID: u.ID, Role: role}
}

// family creates a linked parent and child
func (f *fixture) family(t *testing.T) (Actor, Actor) {
	t.Helper()
	parent := f.user(t, "parent@example.com", models.RoleParent)
	child := f.user(t, "child@example.com", models.RoleChild)
	dbtest.Link(t, f.db, parent.ID, child.ID)
	return parent, child
}

// fund credits a child through an approved mission
func (f *fixture) fund(t *testing.T, parent, child Actor, coins int64) {
	t.Helper()
	ctx := context.Background()
	m, err := f.svc.Missions.Create(ctx, parent, models.NewMission{ChildID: child.ID, Title: "Chores", RewardCoins: coins})
	require.NoError(t, err)
	_, err = f.svc.Missions.MarkCompleted(ctx, child, m.ID)
	require.NoError(t, err)
	_, err = f.svc.Missions.Approve(ctx, parent, m.ID)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	b, err := f.svc.Ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}
