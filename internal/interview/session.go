package interview

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Session owns a Controller and the loop goroutine every call to it runs on.
type Session struct {
	id    string
	ctrl  *Controller
	inbox chan func()
	done  chan struct{}
	once  sync.Once
}

func NewSession(id string, deps Deps, opts Options) *Session {
	s := &Session{
		id:    id,
		inbox: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	deps.Post = s.post
	s.ctrl = NewController(id, deps, opts)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Run processes calls until ctx is cancelled or the session is closed, then
// tears the controller down on the same goroutine.
func (s *Session) Run(ctx context.Context) {
	defer s.ctrl.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case f := <-s.inbox:
			f()
		}
	}
}

// Call runs fn on the session loop and waits for it to return.
func (s *Session) Call(ctx context.Context, fn func(c *Controller) error) error {
	reply := make(chan error, 1)
	select {
	case s.inbox <- func() { reply <- fn(s.ctrl) }:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Call(ctx, func(c *Controller) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Close stops the loop. It is safe to call from any goroutine, including the
// loop itself.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) post(f func()) {
	select {
	case s.inbox <- f:
	case <-s.done:
	}
}

// Registry keeps the live sessions of the host. A session is dropped once
// its redirect countdown completes or the client tears it down.
type Registry struct {
	ctx  context.Context
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(ctx context.Context, opts Options) *Registry {
	return &Registry{
		ctx:      ctx,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session whose dependencies are built for its id.
func (r *Registry) Create(build func(id string) Deps) *Session {
	id := uuid.NewString()
	deps := build(id)

	notify := deps.Notify
	deps.Notify = func(n Notification) {
		if notify != nil {
			notify(n)
		}
		if n.Type == NoteRedirect && n.URL != "" {
			r.Remove(id)
		}
	}

	s := NewSession(id, deps, r.opts)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	go s.Run(r.ctx)

	log.Printf("🎙️  Session %s created", id)
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
