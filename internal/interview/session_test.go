package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/voice-screener/internal/clock"
	"alfredoptarigan/voice-screener/internal/script"
	"alfredoptarigan/voice-screener/internal/speech"
)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func newTestRegistry(t *testing.T) (*Registry, *clock.Fake, func(id string) Deps) {
	t.Helper()
	s, err := script.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fc := clock.NewFake(time.Unix(0, 0))
	reg := NewRegistry(ctx, Options{
		Countdown:       time.Second,
		ClosingDelay:    time.Second,
		RedirectSeconds: 1,
	})

	build := func(id string) Deps {
		return Deps{
			Script:     s,
			Recognizer: &fakeRecognizer{},
			Clock:      fc,
			Notify:     (&recordingNotifier{}).notify,
		}
	}
	return reg, fc, build
}

// barrier waits until everything posted to the session so far has run.
func barrier(s *Session) {
	_ = s.Call(context.Background(), func(*Controller) error { return nil })
}

func TestSession_CallsRunOnTheLoop(t *testing.T) {
	reg, fc, build := newTestRegistry(t)
	sess := reg.Create(build)
	ctx := context.Background()

	require.NoError(t, sess.Call(ctx, func(c *Controller) error {
		return c.Start([]speech.Voice{{Name: "Veena", Lang: "en-IN"}}, true)
	}))
	assert.ErrorIs(t, sess.Call(ctx, func(c *Controller) error {
		return c.Start(nil, true)
	}), ErrAlreadyStarted)

	fc.Advance(time.Second)
	barrier(sess)

	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PHASE1_ACTIVE", snap.Phase)
	assert.Len(t, snap.Transcript, 1)
	assert.Equal(t, sess.ID(), snap.ID)
}

func TestRegistry_RemoveClosesSession(t *testing.T) {
	reg, _, build := newTestRegistry(t)
	sess := reg.Create(build)

	got, ok := reg.Get(sess.ID())
	require.True(t, ok)
	assert.Same(t, sess, got)

	assert.True(t, reg.Remove(sess.ID()))
	assert.False(t, reg.Remove(sess.ID()))
	assert.Zero(t, reg.Len())

	<-sess.Done()
	err := sess.Call(context.Background(), func(*Controller) error { return nil })
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRegistry_DropsSessionAfterRedirect(t *testing.T) {
	reg, fc, build := newTestRegistry(t)
	sess := reg.Create(build)
	ctx := context.Background()

	require.NoError(t, sess.Call(ctx, func(c *Controller) error { return c.Start(nil, false) }))
	fc.Advance(time.Second)
	barrier(sess)

	require.NoError(t, sess.Call(ctx, func(c *Controller) error {
		c.End()
		return nil
	}))
	assert.Equal(t, 1, reg.Len())

	fc.Advance(time.Second)
	barrier(sess)
	fc.Advance(time.Second)
	barrier(sess)

	assert.Zero(t, reg.Len())
	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("session loop still running after redirect")
	}
}

func TestTranscript_SnapshotsAreStable(t *testing.T) {
	var tr Transcript
	at := time.Unix(0, 0)

	tr.Append(RoleAssistant, KindPlain, "Question?", at)
	snap := tr.Messages()
	tr.Append(RoleUser, KindPlain, "Answer", at)

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, tr.Len())

	last, ok := tr.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "Question?", last.Content)

	tr.Replace(nil)
	assert.Zero(t, tr.Len())
	_, ok = tr.LastAssistant()
	assert.False(t, ok)
	assert.Len(t, snap, 1)
}
