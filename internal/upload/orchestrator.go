package upload

import (
	"context"
	"errors"
	"log"
	"time"
)

// Config wires the orchestrator into a session.
type Config struct {
	SessionID string
	Timeout   time.Duration
	// Post runs f on the session loop.
	Post func(f func())
	// Spawn starts background work; defaults to a new goroutine.
	Spawn func(f func())
	Now   func() time.Time
}

// Orchestrator keeps one task per document type. A newer upload of the same
// type supersedes the older one, whose settlement is then dropped.
type Orchestrator struct {
	uploader Uploader
	cfg      Config
	tasks    map[string]*Task
	gen      uint64
	closed   bool

	onSettled func(*Task)
}

func NewOrchestrator(uploader Uploader, cfg Config, onSettled func(*Task)) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Spawn == nil {
		cfg.Spawn = func(f func()) { go f() }
	}
	if cfg.Post == nil {
		cfg.Post = func(f func()) { f() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		uploader:  uploader,
		cfg:       cfg,
		tasks:     make(map[string]*Task),
		onSettled: onSettled,
	}
}

// Submit fires the upload and returns immediately with a pending task.
func (o *Orchestrator) Submit(documentType, role string, file File) *Task {
	o.gen++
	task := &Task{
		Generation:   o.gen,
		DocumentType: documentType,
		FileName:     file.Name,
		Status:       StatusPending,
		StartedAt:    o.cfg.Now(),
	}

	if prev, ok := o.tasks[documentType]; ok && prev.Status == StatusPending {
		log.Printf("⚠️  Upload of %s superseded by a newer %s", prev.FileName, documentType)
	}
	o.tasks[documentType] = task

	req := Request{
		SessionID:    o.cfg.SessionID,
		DocumentType: documentType,
		Role:         role,
		File:         file,
	}

	log.Printf("📥 Uploading %s (%s) for session %s", file.Name, documentType, o.cfg.SessionID)

	o.cfg.Spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Timeout)
		defer cancel()

		res, err := o.uploader.UploadDocument(ctx, req)
		if err == nil && res == nil {
			err = errors.New("upload returned no result")
		}

		o.cfg.Post(func() { o.settle(task, res, err) })
	})

	return task
}

func (o *Orchestrator) Task(documentType string) (*Task, bool) {
	t, ok := o.tasks[documentType]
	return t, ok
}

// Close turns every later settlement into a no-op. In-flight uploads are
// not cancelled.
func (o *Orchestrator) Close() {
	o.closed = true
}

func (o *Orchestrator) settle(task *Task, res *Result, err error) {
	if o.closed {
		log.Printf("⚠️  Dropping %s upload result after session teardown", task.DocumentType)
		return
	}
	if current := o.tasks[task.DocumentType]; current != task {
		log.Printf("⚠️  Dropping superseded %s upload result", task.DocumentType)
		return
	}

	task.Elapsed = o.cfg.Now().Sub(task.StartedAt)
	if err != nil {
		task.Status = StatusFailed
		task.Err = err
		log.Printf("❌ Upload of %s failed: %v", task.DocumentType, err)
	} else {
		task.Status = StatusSucceeded
		task.Result = res
		log.Printf("✅ Upload of %s stored at %s", task.DocumentType, res.URL)
	}

	if o.onSettled != nil {
		o.onSettled(task)
	}
}
