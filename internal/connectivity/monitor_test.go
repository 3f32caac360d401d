package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygate/offline/internal/logging"
)

type fakeProber struct {
	err atomic.Value // error or nil sentinel
}

func (f *fakeProber) setErr(err error) {
	if err == nil {
		f.err.Store(errNone)
	} else {
		f.err.Store(err)
	}
}

var errNone = errors.New("none")

func (f *fakeProber) Ping(ctx context.Context) error {
	v, _ := f.err.Load().(error)
	if v == nil || errors.Is(v, errNone) {
		return nil
	}
	return v
}

func newTestMonitor(p Prober) *Monitor {
	return NewMonitor(p, 10*time.Millisecond, logging.NewDiscardLogger())
}

func TestSetOnline_TransitionFiresHandlersOnce(t *testing.T) {
	m := newTestMonitor(&fakeProber{})

	var transitions atomic.Int32
	m.Subscribe(func(online bool) {
		if online {
			transitions.Add(1)
		}
	})

	m.SetOnline(true)
	m.SetOnline(true) // duplicate signal
	m.SetOnline(true)

	assert.True(t, m.Online())
	assert.EqualValues(t, 1, transitions.Load())
}

func TestSetOnline_OfflineThenOnlineFiresBoth(t *testing.T) {
	m := newTestMonitor(&fakeProber{})

	var got []bool
	m.Subscribe(func(online bool) { got = append(got, online) })

	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(false) // duplicate
	m.SetOnline(true)

	assert.Equal(t, []bool{true, false, true}, got)
}

func TestSetOnline_FirstSignalSeedsEvenWhenOffline(t *testing.T) {
	m := newTestMonitor(&fakeProber{})

	var fired atomic.Int32
	m.Subscribe(func(online bool) { fired.Add(1) })

	// initial state is offline, but the first explicit signal still counts
	// as a seeding transition so subscribers learn the starting state
	m.SetOnline(false)
	assert.EqualValues(t, 1, fired.Load())
	assert.False(t, m.Online())
}

func TestRun_ProbeDrivesTransitions(t *testing.T) {
	p := &fakeProber{}
	p.setErr(errors.New("unreachable"))
	m := newTestMonitor(p)

	online := make(chan bool, 16)
	m.Subscribe(func(state bool) { online <- state })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// seeded offline by the failing probe
	select {
	case state := <-online:
		assert.False(t, state)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial probe")
	}

	// backend comes back
	p.setErr(nil)
	select {
	case state := <-online:
		assert.True(t, state)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for online transition")
	}
	require.True(t, m.Online())
}
