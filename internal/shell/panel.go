package shell

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/decyjphr/github-repository-analysis/internal/logger"
	"github.com/decyjphr/github-repository-analysis/internal/reduction"
)

// Status is the lifecycle position of a panel's latest request.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// State is a snapshot of a panel. While Partial is set the result is final
// but only its first Visible items should be shown.
type State struct {
	Tag      string
	Status   Status
	Result   *Response
	Err      error
	Progress float64 // 0..1
	Visible  int
	Total    int
	Loading  bool
	Partial  bool
}

// Terminal reports whether nothing further will happen for this tag.
func (s State) Terminal() bool {
	return s.Status == StatusFailed || (s.Status == StatusSucceeded && !s.Partial)
}

// VisiblePoints returns the revealed prefix of a reduction result.
func (s State) VisiblePoints() []reduction.Point {
	if s.Result == nil {
		return nil
	}
	pts := s.Result.Reduction.Points
	if s.Visible < len(pts) {
		return pts[:s.Visible]
	}
	return pts
}

// Options controls how a panel picks an executor and paces reveal.
type Options struct {
	// Requests with Size() >= SyncThreshold go to the background executor.
	SyncThreshold  int
	Progressive    bool
	InitialBatch   int
	BatchGrowth    float64
	RevealInterval time.Duration
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		SyncThreshold:  2000,
		InitialBatch:   100,
		BatchGrowth:    1.5,
		RevealInterval: 16 * time.Millisecond,
	}
}

// Panel owns the state of one visualization. Only the latest submitted
// request may publish results; anything older is discarded on arrival.
type Panel struct {
	name       string
	opts       Options
	inline     Executor
	background Executor
	log        *logger.Logger

	mu     sync.Mutex
	state  State
	last   *Request
	cancel context.CancelFunc
	done   chan struct{}
	subs   map[chan State]struct{}
	closed bool
}

// NewPanel creates an idle panel. background may be nil, in which case every
// request runs inline.
func NewPanel(name string, opts Options, background Executor, log *logger.Logger) *Panel {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.InitialBatch <= 0 {
		opts.InitialBatch = DefaultOptions().InitialBatch
	}
	if opts.BatchGrowth < 1 {
		opts.BatchGrowth = DefaultOptions().BatchGrowth
	}
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = DefaultOptions().RevealInterval
	}
	return &Panel{
		name:       name,
		opts:       opts,
		inline:     Inline{},
		background: background,
		log:        log.WithPanel(name),
		subs:       make(map[chan State]struct{}),
	}
}

// Submit starts req, superseding whatever is in flight, and returns its tag.
func (p *Panel) Submit(req Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	p.supersedeLocked()

	tag := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.last = &req
	p.state = State{Tag: tag, Status: StatusRunning, Loading: true}
	p.publishLocked()

	exec, path := p.pick(req)
	p.log.WithTag(tag).Debugw("request submitted", "op", req.Op.String(), "size", req.Size(), "path", path)
	go p.run(ctx, tag, exec, req, p.done)
	return tag, nil
}

// Reprocess re-runs the most recent request under a new tag.
func (p *Panel) Reprocess() (string, error) {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last == nil {
		return "", ErrNoRequest
	}
	return p.Submit(*last)
}

// State returns the current snapshot.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe streams snapshots until the returned cancel func is called or the
// panel is closed. A slow subscriber only misses intermediate snapshots; the
// newest one is always delivered.
func (p *Panel) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	p.mu.Lock()
	if p.closed {
		close(ch)
		p.mu.Unlock()
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}
	ch <- p.state
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
			p.mu.Unlock()
		})
	}
}

// Wait blocks until the latest request is terminal or ctx is done. Requests
// submitted while waiting are followed.
func (p *Panel) Wait(ctx context.Context) (State, error) {
	for {
		p.mu.Lock()
		st, done, closed := p.state, p.done, p.closed
		p.mu.Unlock()
		if st.Terminal() {
			return st, nil
		}
		if closed {
			return st, ErrClosed
		}
		if done == nil {
			return st, ErrNoRequest
		}
		select {
		case <-done:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close cancels in-flight work and ends all subscriptions.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.supersedeLocked()
	for ch := range p.subs {
		close(ch)
	}
	p.subs = nil
}

func (p *Panel) supersedeLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.done != nil && !p.state.Terminal() {
		close(p.done)
	}
	p.done = nil
}

func (p *Panel) pick(req Request) (Executor, string) {
	if p.background != nil && req.Size() >= p.opts.SyncThreshold {
		return p.background, "background"
	}
	return p.inline, "inline"
}

func (p *Panel) run(ctx context.Context, tag string, exec Executor, req Request, done chan struct{}) {
	resp, err := exec.Run(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	log := p.log.WithTag(tag)
	if p.state.Tag != tag || p.closed {
		log.Debugw("discarding stale result", "op", req.Op.String(), "current", p.state.Tag)
		return
	}
	if err != nil {
		log.Warnw("request failed", "op", req.Op.String(), "error", err)
		p.state = State{Tag: tag, Status: StatusFailed, Err: err, Progress: 1}
		p.publishLocked()
		p.finishLocked(done)
		return
	}

	total := resp.Items()
	if !p.opts.Progressive || total <= p.opts.InitialBatch {
		p.state = State{Tag: tag, Status: StatusSucceeded, Result: &resp, Progress: 1, Visible: total, Total: total}
		p.publishLocked()
		p.finishLocked(done)
		return
	}

	visible := p.opts.InitialBatch
	p.state = State{
		Tag: tag, Status: StatusSucceeded, Result: &resp, Partial: true,
		Visible: visible, Total: total, Progress: float64(visible) / float64(total),
	}
	p.publishLocked()
	go p.reveal(ctx, tag, done)
}

// reveal grows the visible prefix every RevealInterval until it covers the
// whole result. The batch size grows geometrically.
func (p *Panel) reveal(ctx context.Context, tag string, done chan struct{}) {
	ticker := time.NewTicker(p.opts.RevealInterval)
	defer ticker.Stop()
	batch := float64(p.opts.InitialBatch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		batch *= p.opts.BatchGrowth

		p.mu.Lock()
		if p.state.Tag != tag || p.closed {
			p.mu.Unlock()
			return
		}
		st := p.state
		st.Visible += int(math.Ceil(batch))
		if st.Visible >= st.Total {
			st.Visible = st.Total
			st.Partial = false
		}
		st.Progress = float64(st.Visible) / float64(st.Total)
		p.state = st
		p.publishLocked()
		if !st.Partial {
			p.finishLocked(done)
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

func (p *Panel) finishLocked(done chan struct{}) {
	if p.done == done && done != nil {
		close(done)
		p.done = nil
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	}
}

func (p *Panel) publishLocked() {
	for ch := range p.subs {
		select {
		case ch <- p.state:
		default:
			// replace the unread snapshot with the newer one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p.state:
			default:
			}
		}
	}
}
