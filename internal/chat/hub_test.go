package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSub records delivered payloads; with reject=true it refuses
// every delivery, simulating a dead or saturated session.
type fakeSub struct {
	id     string
	reject bool

	mu  sync.Mutex
	got [][]byte
}

func newFakeSub(id string) *fakeSub { return &fakeSub{id: id} }

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Deliver(payload []byte) bool {
	if f.reject {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, payload)
	return true
}

func (f *fakeSub) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.got))
	for i, p := range f.got {
		out[i] = string(p)
	}
	return out
}

func TestBroadcastReachesAllMembers(t *testing.T) {
	hub := NewHub()
	a, b, c := newFakeSub("a"), newFakeSub("b"), newFakeSub("c")
	hub.Join("ROOM1", a)
	hub.Join("ROOM1", b)
	hub.Join("ROOM1", c)

	hub.Broadcast("ROOM1", []byte("hello"))

	for _, sub := range []*fakeSub{a, b, c} {
		assert.Equal(t, []string{"hello"}, sub.received())
	}
}

func TestBroadcastSkipsDeregistered(t *testing.T) {
	hub := NewHub()
	a, b, c := newFakeSub("a"), newFakeSub("b"), newFakeSub("c")
	hub.Join("ROOM1", a)
	hub.Join("ROOM1", b)
	hub.Join("ROOM1", c)

	hub.Leave("ROOM1", b)
	hub.Broadcast("ROOM1", []byte("hello"))

	assert.Equal(t, []string{"hello"}, a.received())
	assert.Empty(t, b.received())
	assert.Equal(t, []string{"hello"}, c.received())
}

func TestFailedDeliveryIsIsolated(t *testing.T) {
	hub := NewHub()
	a, c := newFakeSub("a"), newFakeSub("c")
	c.reject = true
	hub.Join("ROOM1", a)
	hub.Join("ROOM1", c)

	hub.Broadcast("ROOM1", []byte("one"))

	assert.Equal(t, []string{"one"}, a.received())
	assert.Empty(t, c.received())

	// the refusing handle was dropped from the room
	assert.Equal(t, 1, hub.Occupancy("ROOM1"))

	hub.Broadcast("ROOM1", []byte("two"))
	assert.Equal(t, []string{"one", "two"}, a.received())
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	hub := NewHub()
	a, b := newFakeSub("a"), newFakeSub("b")
	hub.Join("ROOM1", a)
	hub.Join("ROOM2", b)

	hub.Broadcast("ROOM1", []byte("hello"))

	assert.Equal(t, []string{"hello"}, a.received())
	assert.Empty(t, b.received())
}

func TestSequentialBroadcastsKeepOrder(t *testing.T) {
	hub := NewHub()
	a := newFakeSub("a")
	hub.Join("ROOM1", a)

	for i := 0; i < 10; i++ {
		hub.Broadcast("ROOM1", []byte(fmt.Sprintf("msg-%d", i)))
	}

	got := a.received()
	require.Len(t, got, 10)
	for i, payload := range got {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), payload)
	}
}

func TestJoinIsIdempotentPerSession(t *testing.T) {
	hub := NewHub()
	a := newFakeSub("a")
	hub.Join("ROOM1", a)
	hub.Join("ROOM1", a)

	hub.Broadcast("ROOM1", []byte("hello"))
	assert.Equal(t, []string{"hello"}, a.received())
	assert.Equal(t, 1, hub.Occupancy("ROOM1"))
}

func TestEmptyRoomIsPruned(t *testing.T) {
	hub := NewHub()
	a, b := newFakeSub("a"), newFakeSub("b")
	hub.Join("ROOM1", a)
	hub.Join("ROOM1", b)

	hub.Leave("ROOM1", a)
	hub.mu.RLock()
	_, present := hub.rooms["ROOM1"]
	hub.mu.RUnlock()
	assert.True(t, present)

	hub.Leave("ROOM1", b)
	hub.mu.RLock()
	_, present = hub.rooms["ROOM1"]
	hub.mu.RUnlock()
	assert.False(t, present)

	// leaving an unknown room is harmless
	hub.Leave("ROOM1", b)
	assert.Equal(t, 0, hub.Occupancy("ROOM1"))
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			room := fmt.Sprintf("ROOM%d", n%5)
			sub := newFakeSub(fmt.Sprintf("sub-%d", n))
			hub.Join(room, sub)
			hub.Broadcast(room, []byte("ping"))
			hub.Leave(room, sub)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, hub.Occupancy(fmt.Sprintf("ROOM%d", i)))
	}
}
