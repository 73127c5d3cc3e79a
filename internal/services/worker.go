package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"alfredoptarigan/voice-screener/internal/observe"
)

var ErrPoolStopped = errors.New("analysis pool stopped")

// AnalysisPool bounds how many documents are analyzed at once. Callers wait
// for their own result.
type AnalysisPool interface {
	Start(ctx context.Context)
	Stop()
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error)
}

type analysisJob struct {
	ctx   context.Context
	req   AnalysisRequest
	reply chan analysisReply
}

type analysisReply struct {
	outcome *AnalysisOutcome
	err     error
}

type analysisPool struct {
	analyzer    AnalyzerService
	metrics     *observe.Metrics
	jobQueue    chan analysisJob
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewAnalysisPool(analyzer AnalyzerService, metrics *observe.Metrics, concurrency int) AnalysisPool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &analysisPool{
		analyzer:    analyzer,
		metrics:     metrics,
		jobQueue:    make(chan analysisJob, 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

func (p *analysisPool) Start(ctx context.Context) {
	log.Printf("🚀 Starting analysis pool with %d workers\n", p.concurrency)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.processJobs(ctx, i+1)
	}
}

func (p *analysisPool) Stop() {
	p.stopOnce.Do(func() {
		log.Println("🛑 Stopping analysis pool...")
		close(p.stopChan)
		p.wg.Wait()
		log.Println("✅ Analysis pool stopped")
	})
}

// Analyze queues req and waits for a worker to finish it.
func (p *analysisPool) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	job := analysisJob{ctx: ctx, req: req, reply: make(chan analysisReply, 1)}

	select {
	case p.jobQueue <- job:
	case <-p.stopChan:
		return nil, ErrPoolStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-job.reply:
		return r.outcome, r.err
	case <-p.stopChan:
		return nil, ErrPoolStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *analysisPool) processJobs(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case job := <-p.jobQueue:
			if job.ctx.Err() != nil {
				job.reply <- analysisReply{err: job.ctx.Err()}
				continue
			}

			log.Printf("👷 Worker #%d analyzing %s\n", workerID, job.req.DocumentType)
			start := time.Now()
			outcome, err := p.analyzer.Analyze(job.ctx, job.req)
			p.metrics.RecordAnalysis(ctx, string(job.req.DocumentType), time.Since(start))
			if err != nil {
				log.Printf("❌ Worker #%d failed to analyze %s: %v\n", workerID, job.req.DocumentType, err)
			}
			job.reply <- analysisReply{outcome: outcome, err: err}
		}
	}
}
