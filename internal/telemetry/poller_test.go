package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Juhni/RoopeRobotti/internal/amc"
)

func testMower(id, name, state string) amc.Mower {
	m := amc.Mower{ID: id}
	m.Attributes.System.Name = name
	m.Attributes.Mower.Activity = "MOWING"
	m.Attributes.Mower.State = state
	m.Attributes.Mower.Mode = "MAIN_AREA"
	m.Attributes.Battery.BatteryPercent = 77
	m.Attributes.Settings.CuttingHeight = 5
	m.Attributes.Metadata.Connected = true
	return m
}

type fakeLister struct {
	mu      sync.Mutex
	calls   int
	mowers  []amc.Mower
	failMap map[int]error // call number (1-based) -> error
}

func (f *fakeLister) ListMowers(ctx context.Context) ([]amc.Mower, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failMap[f.calls]; err != nil {
		return nil, err
	}
	return f.mowers, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memorySink struct {
	mu     sync.Mutex
	snaps  []Snapshot
	err    error
	closed bool
}

func (s *memorySink) Write(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

type memoryNotifier struct {
	alerts []Snapshot
}

func (n *memoryNotifier) MowerAlert(ctx context.Context, snap Snapshot) error {
	n.alerts = append(n.alerts, snap)
	return nil
}

func TestPoller_RunOnce(t *testing.T) {
	lister := &fakeLister{mowers: []amc.Mower{
		testMower("m1", "Roope", "IN_OPERATION"),
		testMower("m2", "Robotti", "IN_OPERATION"),
	}}
	sink := &memorySink{}
	poller := NewPoller(lister, []Sink{sink}, nil, time.Second, nil)

	code, err := poller.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	require.Len(t, sink.snaps, 2)
	assert.Equal(t, "m1", sink.snaps[0].MowerID)
	assert.Equal(t, 77, sink.snaps[0].BatteryPercent)
	assert.Equal(t, EnumCode("IN_OPERATION"), sink.snaps[0].StateCode)
}

func TestPoller_RunOnce_NoMowers(t *testing.T) {
	lister := &fakeLister{}
	poller := NewPoller(lister, nil, nil, time.Second, nil)

	code, err := poller.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestPoller_RunOnce_SinkFailureDoesNotStopOthers(t *testing.T) {
	lister := &fakeLister{mowers: []amc.Mower{testMower("m1", "Roope", "IN_OPERATION")}}
	broken := &memorySink{err: errors.New("write refused")}
	working := &memorySink{}
	poller := NewPoller(lister, []Sink{broken, working}, nil, time.Second, nil)

	code, err := poller.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Len(t, working.snaps, 1)
}

func TestPoller_Run_SurvivesIterationErrors(t *testing.T) {
	lister := &fakeLister{
		mowers:  []amc.Mower{testMower("m1", "Roope", "IN_OPERATION")},
		failMap: map[int]error{1: errors.New("connection reset")},
	}
	sink := &memorySink{}
	poller := NewPoller(lister, []Sink{sink}, nil, time.Second, nil)
	// The floor keeps user config sane; tests want faster iterations.
	poller.interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := poller.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.GreaterOrEqual(t, lister.callCount(), 2, "the loop must continue after a failed iteration")
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.NotEmpty(t, sink.snaps, "later iterations must still reach the sinks")
}

func TestPoller_IntervalFloor(t *testing.T) {
	poller := NewPoller(&fakeLister{}, nil, nil, 0, nil)
	assert.Equal(t, time.Second, poller.interval)
}

func TestPoller_AlertsOnErrorTransitionOnly(t *testing.T) {
	lister := &fakeLister{mowers: []amc.Mower{testMower("m1", "Roope", "ERROR")}}
	notifier := &memoryNotifier{}
	poller := NewPoller(lister, nil, notifier, time.Second, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := poller.RunOnce(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, notifier.alerts, 1, "a persisting error alerts once, not once per poll")

	// Recovery and a new error alert again.
	lister.mowers = []amc.Mower{testMower("m1", "Roope", "IN_OPERATION")}
	_, err := poller.RunOnce(ctx)
	require.NoError(t, err)
	lister.mowers = []amc.Mower{testMower("m1", "Roope", "FATAL_ERROR")}
	_, err = poller.RunOnce(ctx)
	require.NoError(t, err)
	assert.Len(t, notifier.alerts, 2)
}
