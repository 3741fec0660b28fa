package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (f *fakeMessenger) SendDM(userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[userID] {
		return errors.New("cannot send messages to this user")
	}
	f.sent = append(f.sent, userID)
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestScheduler(m Messenger) (*ReminderScheduler, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rs := NewReminderScheduler(m, 24*time.Hour, nil)
	rs.now = clock.now
	return rs, clock
}

func TestReminderScheduleIsIdempotent(t *testing.T) {
	rs, clock := newTestScheduler(&fakeMessenger{})

	assert.True(t, rs.Schedule("g1", "u1"))
	assert.False(t, rs.Schedule("g1", "u1"))

	pending := rs.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, clock.t.Add(24*time.Hour), pending[0].ScheduledFor)

	// a different guild is a different pair
	assert.True(t, rs.Schedule("g2", "u1"))
	assert.Len(t, rs.Pending(), 2)
}

func TestReminderCancel(t *testing.T) {
	rs, _ := newTestScheduler(&fakeMessenger{})

	assert.False(t, rs.Cancel("g1", "u1"))
	rs.Schedule("g1", "u1")
	assert.True(t, rs.Cancel("g1", "u1"))
	assert.Empty(t, rs.Pending())
}

func TestReminderSweep(t *testing.T) {
	m := &fakeMessenger{fail: map[string]bool{"closed-dms": true}}
	rs, clock := newTestScheduler(m)

	rs.Schedule("g1", "u1")
	rs.Schedule("g1", "closed-dms")
	clock.advance(time.Hour)
	rs.Schedule("g1", "later")

	sent, failed := rs.Sweep(context.Background())
	assert.Zero(t, sent)
	assert.Zero(t, failed)

	clock.advance(23 * time.Hour)
	sent, failed = rs.Sweep(context.Background())
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"u1"}, m.sent)

	// failed deliveries are not retried
	pending := rs.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "later", pending[0].UserID)

	clock.advance(time.Hour)
	sent, failed = rs.Sweep(context.Background())
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)
	assert.Empty(t, rs.Pending())
}

func TestReminderSentIsTerminal(t *testing.T) {
	m := &fakeMessenger{}
	rs, clock := newTestScheduler(m)

	rs.Schedule("g1", "u1")
	clock.advance(25 * time.Hour)
	rs.Sweep(context.Background())

	// cancel has nothing to remove once the reminder went out
	assert.False(t, rs.Cancel("g1", "u1"))
	// a new flow can schedule again
	assert.True(t, rs.Schedule("g1", "u1"))
	assert.Len(t, rs.reminders, 2)
}
