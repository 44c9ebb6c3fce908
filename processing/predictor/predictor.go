// Package predictor runs normalization and inference off the UI goroutine.
package predictor

import (
	"context"
	"image"
	"sync"
	"time"

	"digitpad/internal/logger"
	"digitpad/internal/models"
	"digitpad/processing/inference"
	"digitpad/processing/normalize"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

type Result struct {
	Prediction *models.Prediction
	Input      normalize.Tensor
	Err        error
}

type request struct {
	raster *image.Gray
	done   func(Result)
}

// Predictor accepts one request at a time. Requests submitted while another
// is in flight are refused rather than queued.
type Predictor struct {
	normalizer *normalize.Normalizer
	adapter    *inference.Adapter

	requests chan request
	stopChan chan struct{}
	exited   chan struct{}
	sem      *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
	latency time.Duration

	log zerolog.Logger
}

func New(n *normalize.Normalizer, a *inference.Adapter) *Predictor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Predictor{
		normalizer: n,
		adapter:    a,
		requests:   make(chan request, 1),
		stopChan:   make(chan struct{}),
		exited:     make(chan struct{}),
		sem:        semaphore.NewWeighted(1),
		ctx:        ctx,
		cancel:     cancel,
		log:        logger.Component("predictor"),
	}
}

func (p *Predictor) Available() bool {
	return p.adapter.Available()
}

func (p *Predictor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	go p.runLoop()
}

func (p *Predictor) runLoop() {
	defer close(p.exited)

	for {
		select {
		case req := <-p.requests:
			p.handle(req)

		case <-p.stopChan:
			p.drain()
			return
		}
	}
}

func (p *Predictor) handle(req request) {
	res := p.run(req.raster)
	p.sem.Release(1)
	req.done(res)
}

func (p *Predictor) run(raster *image.Gray) Result {
	if err := p.ctx.Err(); err != nil {
		return Result{Err: err}
	}

	res := p.PredictNow(raster)

	if err := p.ctx.Err(); err != nil {
		return Result{Err: err}
	}
	return res
}

func (p *Predictor) drain() {
	for {
		select {
		case req := <-p.requests:
			p.sem.Release(1)
			req.done(Result{Err: context.Canceled})
		default:
			return
		}
	}
}

// Submit queues raster for prediction. done is called from the worker
// goroutine. It returns false if a prediction is already running or the
// predictor is stopped.
func (p *Predictor) Submit(raster *image.Gray, done func(Result)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || !p.started {
		return false
	}

	if !p.sem.TryAcquire(1) {
		p.log.Debug().Msg("prediction already in flight")
		return false
	}

	p.requests <- request{raster: raster, done: done}
	return true
}

// PredictNow normalizes raster and runs the model on the calling goroutine.
func (p *Predictor) PredictNow(raster *image.Gray) Result {
	start := time.Now()

	tensor := p.normalizer.Normalize(raster)
	pred, err := p.adapter.Predict(tensor)

	p.mu.Lock()
	p.latency = time.Since(start)
	p.mu.Unlock()

	if err != nil {
		p.log.Error().Err(err).Msg("prediction failed")
		return Result{Input: tensor, Err: err}
	}

	p.log.Info().
		Str("id", pred.ID).
		Int("class", pred.Class).
		Float32("confidence", pred.Confidence()).
		Dur("latency", p.Latency()).
		Msg("digit predicted")

	return Result{Prediction: pred, Input: tensor}
}

// Latency is the duration of the most recent normalize and predict pass.
func (p *Predictor) Latency() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latency
}

// Stop cancels pending work and waits for the worker to exit. Pending
// callbacks receive context.Canceled.
func (p *Predictor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.cancel()
	close(p.stopChan)
	p.mu.Unlock()

	if started {
		<-p.exited
	}
}
