package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/bochi/pkg/hierarchy"
	"github.com/devicelab-dev/bochi/pkg/selector"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// scriptedSource returns each step in turn, repeating the last one.
type scriptedSource struct {
	steps []step
	calls int
}

type step struct {
	xml string
	err error
}

func (s *scriptedSource) Hierarchy(ctx context.Context) (*hierarchy.Tree, error) {
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	if s.steps[i].err != nil {
		return nil, s.steps[i].err
	}
	return hierarchy.ParseString(s.steps[i].xml)
}

const (
	withSubmit = `<hierarchy>
  <node text="Cancel" resource-id="a" bounds="[0,0][100,100]" />
  <node text="Submit" resource-id="b" bounds="[0,100][200,300]" />
</hierarchy>`
	withoutSubmit = `<hierarchy><node text="Cancel" resource-id="a" /></hierarchy>`
)

func TestResolveFirstAttempt(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withSubmit}}}
	clock := newFakeClock()
	r := New(src, WithClock(clock))

	m, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Empty(t, clock.sleeps)

	assert.Equal(t, "Submit", m.Element.Text)
	assert.Equal(t, "b", m.Element.ResourceID)
	x, y, ok := m.TapPoint()
	require.True(t, ok)
	assert.Equal(t, 100, x)
	assert.Equal(t, 200, y)
}

func TestResolveZeroTimeoutSingleAttempt(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	clock := newFakeClock()
	r := New(src, WithClock(clock))

	_, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), 0)
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 1, nf.Attempts)
	assert.Equal(t, `[text="Submit"]`, nf.Selector)
	assert.Equal(t, 1, src.calls)
	assert.Empty(t, clock.sleeps)
}

func TestResolveNegativeTimeoutSingleAttempt(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	r := New(src, WithClock(newFakeClock()))

	_, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), -time.Second)
	require.Error(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestResolvePollsUntilMatch(t *testing.T) {
	src := &scriptedSource{steps: []step{
		{xml: withoutSubmit},
		{xml: withoutSubmit},
		{xml: withSubmit},
	}}
	clock := newFakeClock()
	r := New(src, WithClock(clock))

	m, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", m.Element.ResourceID)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, []time.Duration{DefaultPollInterval, DefaultPollInterval}, clock.sleeps)
}

func TestResolveTimesOut(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	clock := newFakeClock()
	r := New(src, WithClock(clock), WithPollInterval(400*time.Millisecond))

	_, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), time.Second)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))

	// Attempts at 0ms, 400ms, 800ms and 1000ms; the last sleep is clipped.
	assert.Equal(t, 4, nf.Attempts)
	assert.Equal(t, time.Second, nf.Timeout)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 400 * time.Millisecond, 200 * time.Millisecond}, clock.sleeps)
	assert.NoError(t, nf.LastErr)
	assert.Contains(t, err.Error(), `[text="Submit"]`)
}

func TestResolveRetriesSnapshotErrors(t *testing.T) {
	dumpErr := errors.New("uiautomator dump failed")
	src := &scriptedSource{steps: []step{
		{err: dumpErr},
		{err: dumpErr},
		{xml: withSubmit},
	}}
	r := New(src, WithClock(newFakeClock()))

	m, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", m.Element.ResourceID)
	assert.Equal(t, 3, src.calls)
}

func TestResolveReportsLastSnapshotError(t *testing.T) {
	dumpErr := errors.New("device offline")
	src := &scriptedSource{steps: []step{{err: dumpErr}}}
	r := New(src, WithClock(newFakeClock()))

	_, err := r.Resolve(context.Background(), selector.MustParse(`[text=Submit]`), time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dumpErr))
	assert.Contains(t, err.Error(), "device offline")
}

func TestResolveUntilSharesDeadline(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	clock := newFakeClock()
	r := New(src, WithClock(clock))

	deadline := clock.Now().Add(time.Second)
	clock.Sleep(600 * time.Millisecond)
	clock.sleeps = nil

	_, err := r.ResolveUntil(context.Background(), selector.MustParse(`[text=Submit]`), deadline)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 400*time.Millisecond, nf.Timeout)
	assert.Equal(t, 2, nf.Attempts)
	assert.Equal(t, []time.Duration{400 * time.Millisecond}, clock.sleeps)
}

func TestResolveUntilPastDeadline(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	clock := newFakeClock()
	r := New(src, WithClock(clock))

	_, err := r.ResolveUntil(context.Background(), selector.MustParse(`[text=Submit]`), clock.Now().Add(-time.Second))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, time.Duration(0), nf.Timeout)
	assert.Equal(t, 1, src.calls)
}

func TestResolveCancelledContext(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	r := New(src, WithClock(newFakeClock()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, selector.MustParse(`[text=Submit]`), time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.calls)
}

func TestTapPointWithoutBounds(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}}}
	r := New(src, WithClock(newFakeClock()))

	m, err := r.Resolve(context.Background(), selector.MustParse(`[text=Cancel]`), 0)
	require.NoError(t, err)
	_, _, ok := m.TapPoint()
	assert.False(t, ok)
}

func TestSampleTakesOneSnapshot(t *testing.T) {
	src := &scriptedSource{steps: []step{{xml: withoutSubmit}, {xml: withSubmit}}}
	clock := newFakeClock()
	r := New(src, WithClock(clock))

	_, err := r.Sample(context.Background(), selector.MustParse(`[text=Submit]`))
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, nf.Attempts)
	assert.Equal(t, 1, src.calls)
	assert.Empty(t, clock.sleeps)

	m, err := r.Sample(context.Background(), selector.MustParse(`[text=Submit]`))
	require.NoError(t, err)
	assert.Equal(t, "b", m.Element.ResourceID)
	assert.Equal(t, 2, src.calls)
}

func TestSleepUsesClock(t *testing.T) {
	clock := newFakeClock()
	r := New(&scriptedSource{}, WithClock(clock))

	r.Sleep(300 * time.Millisecond)
	r.Sleep(0)
	r.Sleep(-time.Second)
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, clock.sleeps)
}
