package refresh_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-admin/internal/refresh"
)

func TestCycleRunsListAndStatsIndependently(t *testing.T) {
	var listCalls, statsCalls atomic.Int32
	cycle := refresh.NewCycle(
		func(context.Context) error { listCalls.Add(1); return nil },
		func(context.Context) error { statsCalls.Add(1); return errors.New("stats unavailable") },
		zerolog.Nop(),
	)

	result := cycle.Run(context.Background())
	require.NoError(t, result.ListErr)
	require.EqualError(t, result.StatsErr, "stats unavailable")
	require.ErrorContains(t, result.Err(), "stats unavailable")
	require.Equal(t, int32(1), listCalls.Load())
	require.Equal(t, int32(1), statsCalls.Load())
}

func TestCycleWithoutStats(t *testing.T) {
	cycle := refresh.NewCycle(func(context.Context) error { return nil }, nil, zerolog.Nop())
	require.NoError(t, cycle.Run(context.Background()).Err())
}

func TestLoadAllFailsAsGroup(t *testing.T) {
	canceled := make(chan struct{})
	err := refresh.LoadAll(context.Background(),
		refresh.Loader{Name: "teachers", Load: func(context.Context) error { return errors.New("down") }},
		refresh.Loader{Name: "classes", Load: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				close(canceled)
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		}},
	)
	require.EqualError(t, err, "load teachers: down")
	<-canceled
}

func TestLoadEachKeepsSiblings(t *testing.T) {
	var loaded atomic.Bool
	errs := refresh.LoadEach(context.Background(),
		refresh.Loader{Name: "teachers", Load: func(context.Context) error { return errors.New("down") }},
		refresh.Loader{Name: "subjects", Load: func(context.Context) error { loaded.Store(true); return nil }},
	)
	require.Len(t, errs, 1)
	require.EqualError(t, errs["teachers"], "down")
	require.True(t, loaded.Load())
}

func TestBroadcasterFansOutOverRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientA := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer clientB.Close()

	sender := refresh.NewBroadcaster(clientA, "test:mutations", nil, "", zerolog.Nop())
	receiver := refresh.NewBroadcaster(clientB, "test:mutations", nil, "", zerolog.Nop())
	require.NotEqual(t, sender.Source(), receiver.Source())

	own := make(chan refresh.Event, 1)
	sender.OnEvent(func(event refresh.Event) { own <- event })
	received := make(chan refresh.Event, 1)
	receiver.OnEvent(func(event refresh.Event) { received <- event })

	require.NoError(t, sender.Start(ctx))
	require.NoError(t, receiver.Start(ctx))

	require.NoError(t, sender.Publish(ctx, "homework", refresh.ActionBulkDeleted, "h1", "h2"))

	select {
	case event := <-received:
		require.Equal(t, "homework", event.Resource)
		require.Equal(t, refresh.ActionBulkDeleted, event.Action)
		require.Equal(t, []string{"h1", "h2"}, event.IDs)
		require.Equal(t, sender.Source(), event.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	select {
	case <-own:
		t.Fatal("sender handled its own event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNilBroadcasterIsNoop(t *testing.T) {
	var b *refresh.Broadcaster
	require.NoError(t, b.Publish(context.Background(), "classes", refresh.ActionCreated))
	require.NoError(t, b.Start(context.Background()))
	b.OnEvent(func(refresh.Event) {})()

	_, err := refresh.ConnectNATS("", "gema-admin")
	require.Error(t, err)
}
