// Package resolve turns a parsed selector into a matched node by sampling
// UI snapshots until one matches or a deadline passes.
package resolve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/bochi/pkg/core"
	"github.com/devicelab-dev/bochi/pkg/hierarchy"
	"github.com/devicelab-dev/bochi/pkg/selector"
)

// DefaultPollInterval is the pause between snapshots that did not match.
const DefaultPollInterval = 500 * time.Millisecond

// Source produces a fresh UI snapshot on every call.
type Source interface {
	Hierarchy(ctx context.Context) (*hierarchy.Tree, error)
}

// Clock abstracts time so polling can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Match is a resolved node. It is only valid for the snapshot it came from.
type Match struct {
	Tree    *hierarchy.Tree
	Node    hierarchy.NodeID
	Element *core.ElementInfo
}

// TapPoint returns the center of the node's bounds. ok is false when the
// node has no usable bounds.
func (m *Match) TapPoint() (x, y int, ok bool) {
	b, ok := m.Tree.Bounds(m.Node)
	if !ok {
		return 0, 0, false
	}
	x, y = b.Center()
	return x, y, true
}

// NotFoundError is returned when no snapshot within the timeout matched.
type NotFoundError struct {
	Selector string
	Timeout  time.Duration
	Attempts int
	LastErr  error // most recent snapshot failure, if the last attempt failed
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no element matching %s within %v (%d attempts)", e.Selector, e.Timeout, e.Attempts)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.LastErr }

// Resolver polls a Source for selector matches. It is strictly sequential:
// one snapshot is fetched and matched at a time.
type Resolver struct {
	source       Source
	pollInterval time.Duration
	clock        Clock
	log          *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPollInterval sets the pause between unsuccessful attempts.
func WithPollInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithLogger sets the logger used for per-attempt debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Resolver reading snapshots from src.
func New(src Source, opts ...Option) *Resolver {
	r := &Resolver{
		source:       src,
		pollInterval: DefaultPollInterval,
		clock:        realClock{},
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the resolver's current time.
func (r *Resolver) Now() time.Time { return r.clock.Now() }

// Resolve returns the first node, in document order, matched by l in the
// first snapshot that has a match. A timeout of zero or less makes exactly
// one attempt.
func (r *Resolver) Resolve(ctx context.Context, l selector.List, timeout time.Duration) (*Match, error) {
	if timeout < 0 {
		timeout = 0
	}
	return r.resolve(ctx, l, r.clock.Now().Add(timeout), timeout)
}

// ResolveUntil is Resolve with an absolute deadline, so that callers
// running several resolutions can share one time budget.
func (r *Resolver) ResolveUntil(ctx context.Context, l selector.List, deadline time.Time) (*Match, error) {
	timeout := deadline.Sub(r.clock.Now())
	if timeout < 0 {
		timeout = 0
	}
	return r.resolve(ctx, l, deadline, timeout)
}

// Sample takes exactly one snapshot and matches l against it.
func (r *Resolver) Sample(ctx context.Context, l selector.List) (*Match, error) {
	return r.resolve(ctx, l, r.clock.Now(), 0)
}

// Sleep pauses on the resolver's clock.
func (r *Resolver) Sleep(d time.Duration) {
	if d > 0 {
		r.clock.Sleep(d)
	}
}

func (r *Resolver) resolve(ctx context.Context, l selector.List, deadline time.Time, timeout time.Duration) (*Match, error) {
	attempts := 0
	var lastErr error

	for {
		attempts++
		tree, err := r.source.Hierarchy(ctx)
		if err != nil {
			lastErr = err
			r.log.Debug("snapshot failed", zap.Int("attempt", attempts), zap.Error(err))
		} else {
			lastErr = nil
			if id, ok := selector.First(tree, l); ok {
				r.log.Debug("selector matched",
					zap.Int("attempt", attempts),
					zap.String("node", tree.Describe(id)))
				return &Match{Tree: tree, Node: id, Element: tree.Info(id)}, nil
			}
			r.log.Debug("no match in snapshot", zap.Int("attempt", attempts), zap.Int("nodes", tree.Len()))
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remaining := deadline.Sub(r.clock.Now())
		if remaining <= 0 {
			return nil, &NotFoundError{
				Selector: l.String(),
				Timeout:  timeout,
				Attempts: attempts,
				LastErr:  lastErr,
			}
		}

		wait := r.pollInterval
		if remaining < wait {
			wait = remaining
		}
		r.clock.Sleep(wait)
	}
}
