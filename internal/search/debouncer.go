package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"animehub-client/internal/models"
)

const (
	DefaultQuiet = 300 * time.Millisecond
	MinQueryLen  = 2
)

type Searcher interface {
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// Result is delivered once per settled query. A query shorter than
// MinQueryLen produces an empty result without a search.
type Result struct {
	Query string
	Users []models.User
	Err   error
}

// Debouncer runs at most one search per burst of input. Each Input cancels
// the pending search and any search still in flight.
type Debouncer struct {
	api     Searcher
	self    models.ID
	quiet   time.Duration
	deliver func(Result)
	logger  *zap.Logger

	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	cancel   context.CancelFunc
	closed   bool
	inflight sync.WaitGroup
}

type Option func(*Debouncer)

func WithQuiet(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.quiet = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(db *Debouncer) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// NewDebouncer returns a debouncer that hides self from results and hands
// each result to deliver. Results arrive in Input order; deliver runs under
// the debouncer's lock and must not call Input or Close.
func NewDebouncer(api Searcher, self models.ID, deliver func(Result), opts ...Option) *Debouncer {
	d := &Debouncer{
		api:     api,
		self:    self,
		quiet:   DefaultQuiet,
		deliver: deliver,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Debouncer) Input(query string) {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.seq++
	seq := d.seq
	d.stopLocked()

	if utf8.RuneCountInString(query) < MinQueryLen {
		d.deliver(Result{Query: query})
		d.mu.Unlock()
		return
	}

	d.inflight.Add(1)
	d.timer = time.AfterFunc(d.quiet, func() {
		defer d.inflight.Done()
		d.run(seq, query)
	})
	d.mu.Unlock()
}

// Close cancels pending work and waits for running searches to return.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.seq++
	d.stopLocked()
	d.mu.Unlock()
	d.inflight.Wait()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.timer = nil
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) run(seq uint64, query string) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = nil
	d.mu.Unlock()
	defer cancel()

	users, err := d.api.SearchUsers(ctx, query)

	// held through deliver so a newer Input cannot land its result first
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq || ctx.Err() != nil {
		d.logger.Debug("dropping superseded search", zap.String("query", query))
		return
	}

	if err != nil {
		d.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		d.deliver(Result{Query: query, Err: err})
		return
	}
	d.deliver(Result{Query: query, Users: excludeSelf(users, d.self)})
}

func excludeSelf(users []models.User, self models.ID) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if models.SameID(u.ID, self) {
			continue
		}
		out = append(out, u)
	}
	return out
}
