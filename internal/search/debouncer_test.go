package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"animehub-client/internal/mocks"
	"animehub-client/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const quiet = 30 * time.Millisecond

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) deliver(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *collector) all() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

func TestTwoCharactersIssueOneSearchAfterQuiet(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("SearchUsers", mock.Anything, "jo").Return([]models.User{{ID: "U2", Username: "john"}}, nil).Once()
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input("jo")
	api.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything)

	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 5*time.Millisecond)
	res := out.all()[0]
	assert.Equal(t, "jo", res.Query)
	require.Len(t, res.Users, 1)
	api.AssertNumberOfCalls(t, "SearchUsers", 1)
}

func TestKeystrokeWithinQuietPeriodReschedules(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("SearchUsers", mock.Anything, "joh").Return([]models.User{}, nil).Once()
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input("jo")
	time.Sleep(quiet / 3)
	d.Input("joh")

	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * quiet)

	api.AssertNumberOfCalls(t, "SearchUsers", 1)
	api.AssertNotCalled(t, "SearchUsers", mock.Anything, "jo")
	assert.Equal(t, "joh", out.all()[0].Query)
}

func TestShortQueryClearsWithoutSearching(t *testing.T) {
	api := new(mocks.APIMock)
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input(" j ")
	time.Sleep(2 * quiet)

	results := out.all()
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Users)
	assert.NoError(t, results[0].Err)
	api.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything)
}

func TestResultsExcludeSelf(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("SearchUsers", mock.Anything, "al").Return([]models.User{{ID: "U1", Username: "alice"}, {ID: "U4", Username: "alan"}}, nil).Once()
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input("al")
	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 5*time.Millisecond)
	users := out.all()[0].Users
	require.Len(t, users, 1)
	assert.Equal(t, "alan", users[0].Username)
}

func TestSearchErrorIsDelivered(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("SearchUsers", mock.Anything, "zz").Return(nil, assert.AnError).Once()
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input("zz")
	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, out.all()[0].Err, assert.AnError)
}

func TestNewInputCancelsInFlightSearch(t *testing.T) {
	api := new(mocks.APIMock)
	started := make(chan struct{})
	api.On("SearchUsers", mock.Anything, "slow").
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return([]models.User{{ID: "U9"}}, nil).Once()
	api.On("SearchUsers", mock.Anything, "fast").Return([]models.User{{ID: "U5", Username: "fast"}}, nil).Once()
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input("slow")
	<-started
	d.Input("fast")

	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(quiet)
	results := out.all()
	require.Len(t, results, 1)
	assert.Equal(t, "fast", results[0].Query)
}

func TestCloseStopsPendingSearch(t *testing.T) {
	api := new(mocks.APIMock)
	out := &collector{}
	d := NewDebouncer(api, "U1", out.deliver, WithQuiet(quiet))

	d.Input("pending")
	d.Close()
	d.Input("ignored")
	time.Sleep(2 * quiet)

	assert.Empty(t, out.all())
	api.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything)
}

func TestSupersededResultNeverLandsAfterNewerInput(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("SearchUsers", mock.Anything, "jo").Return([]models.User{{ID: "U2", Username: "john"}}, nil).Once()

	entered := make(chan struct{})
	release := make(chan struct{})
	out := &collector{}
	deliver := func(r Result) {
		if r.Query == "jo" {
			close(entered)
			<-release
		}
		out.deliver(r)
	}
	d := NewDebouncer(api, "U1", deliver, WithQuiet(quiet))
	defer d.Close()

	d.Input("jo")
	<-entered

	inputDone := make(chan struct{})
	go func() {
		d.Input("j")
		close(inputDone)
	}()

	select {
	case <-inputDone:
		t.Fatal("input completed while an older result was being delivered")
	case <-time.After(2 * quiet):
	}
	close(release)
	<-inputDone

	res := out.all()
	require.Len(t, res, 2)
	assert.Equal(t, "jo", res[0].Query)
	assert.Equal(t, "j", res[1].Query)
	assert.Empty(t, res[1].Users)
}
