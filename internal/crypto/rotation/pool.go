// Package rotation implements opportunistic, best-effort re-encryption of
// secrets onto the current default DEK as they are read under an older one.
// Work is enqueued non-blockingly from the read path and drained by a small
// bounded worker pool. Concurrent re-encrypts of the same secret on different
// workers are collapsed into one call via singleflight; the queue itself is
// not de-duplicated, so a secret enqueued again while an earlier job for it
// is still queued, or after that job has finished, is processed again.
package rotation

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Reencryptor re-encrypts one secret onto the current default DEK. Returning
// an error only logs — rotation is best-effort and never surfaces failures
// to the read path that triggered it.
type Reencryptor func(ctx context.Context, secretID string) error

// job is one pending re-encrypt, queued by secret id.
type job struct {
	secretID string
}

// Pool is a bounded background worker pool for opportunistic rotation.
type Pool struct {
	queue    chan job
	group    singleflight.Group
	reencrypt Reencryptor
	logger   *slog.Logger
	done     chan struct{}
}

// NewPool builds a Pool with the given queue depth (256 when not positive).
// No workers run until Run is called.
func NewPool(reencrypt Reencryptor, logger *slog.Logger, queueDepth int) *Pool {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	return &Pool{
		queue:    make(chan job, queueDepth),
		reencrypt: reencrypt,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Run starts workerCount goroutines draining the queue until ctx is done.
// Call once at startup; blocks until ctx is cancelled, so the caller should
// invoke it in its own goroutine.
func (p *Pool) Run(ctx context.Context, workerCount int) {
	if workerCount <= 0 {
		workerCount = 4
	}

	workerDone := make(chan struct{}, workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer func() { workerDone <- struct{}{} }()
			p.worker(ctx)
		}()
	}

	<-ctx.Done()
	for i := 0; i < workerCount; i++ {
		<-workerDone
	}
	close(p.done)
}

func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			p.process(ctx, j.secretID)
		}
	}
}

func (p *Pool) process(ctx context.Context, secretID string) {
	// singleflight collapses concurrent enqueues for the same secret into a
	// single re-encrypt; the duplicate caller's Enqueue already returned, so
	// there's nothing to do with the shared result here beyond logging once.
	_, err, _ := p.group.Do(secretID, func() (any, error) {
		return nil, p.reencrypt(ctx, secretID)
	})
	if err != nil {
		p.logger.Warn("opportunistic rotation failed", slog.String("secret_id", secretID), slog.String("error", err.Error()))
	}
}

// Enqueue schedules secretID for opportunistic re-encryption. It never
// blocks: if the queue is full the request is dropped and logged, since the
// secret will simply be re-evaluated (and re-enqueued) on its next read.
func (p *Pool) Enqueue(secretID string) {
	select {
	case p.queue <- job{secretID: secretID}:
	default:
		p.logger.Warn("opportunistic rotation queue full, dropping", slog.String("secret_id", secretID))
	}
}
