package lockout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func TestKey(t *testing.T) {
	assert.Equal(t, "alice@example.com", Key("  Alice@Example.COM "))
}

func TestState_Locked(t *testing.T) {
	until := t0.Add(time.Minute)
	st := State{FailedCount: 5, LockedUntil: &until}

	assert.True(t, st.Locked(t0))
	assert.False(t, st.Locked(until))
	assert.False(t, State{}.Locked(t0))
}

func TestMemoryStore_LocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 1; i < 3; i++ {
		st, err := s.RecordFailure(ctx, "k", t0, 3, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, st.FailedCount)
		assert.False(t, st.Locked(t0))
	}

	st, err := s.RecordFailure(ctx, "k", t0, 3, 15*time.Minute)
	require.NoError(t, err)
	require.True(t, st.Locked(t0))
	assert.True(t, st.LockedUntil.Equal(t0.Add(15*time.Minute)))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, got.FailedCount)
}

func TestMemoryStore_ExpiredLockStartsOver(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, _ = s.RecordFailure(ctx, "k", t0, 1, time.Minute)
	st, err := s.RecordFailure(ctx, "k", t0.Add(2*time.Minute), 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedCount)
	assert.Nil(t, st.LockedUntil)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, _ = s.RecordFailure(ctx, "k", t0, 1, time.Minute)
	require.NoError(t, s.Clear(ctx, "k"))

	st, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestMemoryStore_DropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	keys := func() []string {
		out := make([]string, 0, len(s.entries))
		for k := range s.entries {
			out = append(out, k)
		}
		return out
	}

	for i := 0; i < 100; i++ {
		_, err := s.RecordFailure(ctx, fmt.Sprintf("unknown-%d@example.com", i), t0, 5, time.Minute)
		require.NoError(t, err)
	}
	_, _ = s.RecordFailure(ctx, "expired-lock", t0, 1, time.Minute)
	_, _ = s.RecordFailure(ctx, "held-lock", t0, 1, 72*time.Hour)
	require.Len(t, s.entries, 102)

	_, err := s.RecordFailure(ctx, "recent", t0.Add(30*time.Hour), 5, time.Minute)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"held-lock", "recent"}, keys())

	_, err = s.RecordFailure(ctx, "next", t0.Add(48*time.Hour), 5, time.Minute)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"held-lock", "recent", "next"}, keys())
}

func TestMemoryStore_StaleCounterStartsOver(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, _ = s.RecordFailure(ctx, "k", t0, 3, time.Minute)
	_, _ = s.RecordFailure(ctx, "k", t0, 3, time.Minute)

	st, err := s.RecordFailure(ctx, "k", t0.Add(StaleAfter), 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedCount)
	assert.False(t, st.Locked(t0.Add(StaleAfter)))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RecordFailure(ctx, "k", t0, 100, time.Minute)
		}()
	}
	wg.Wait()

	st, _ := s.Get(ctx, "k")
	assert.Equal(t, 50, st.FailedCount)
}

func TestParseState(t *testing.T) {
	st := parseState(map[string]string{"failed_count": "4", "locked_until": "1746100800"})
	assert.Equal(t, 4, st.FailedCount)
	require.NotNil(t, st.LockedUntil)
	assert.Equal(t, int64(1746100800), st.LockedUntil.Unix())

	assert.Equal(t, State{}, parseState(map[string]string{"failed_count": "x", "locked_until": ""}))
}

func TestConnect(t *testing.T) {
	c, err := Connect("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	c, err = Connect("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", c.Options().Addr)
	_ = c.Close()

	_, err = Connect("redis://host:notaport/x")
	assert.Error(t, err)
}

func TestRedisStore_PropagatesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client)

	_, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	_, err = s.RecordFailure(context.Background(), "k", t0, 3, time.Minute)
	assert.Error(t, err)
	assert.Error(t, s.Clear(context.Background(), "k"))
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)
