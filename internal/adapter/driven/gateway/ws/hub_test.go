package ws

import (
	"context"
	"sync"
	"testing"
)

type fakeClient struct {
	id string

	mu     sync.Mutex
	events []string
	closed bool
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestBroadcastReachesGroupOnly(t *testing.T) {
	h := NewHub()
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	outsider := &fakeClient{id: "x"}
	for _, c := range []*fakeClient{a, b, outsider} {
		h.Register(c)
	}
	h.JoinGroup("ABCD", "a")
	h.JoinGroup("ABCD", "b")

	h.Broadcast(context.Background(), "ABCD", "joined", nil)

	if got := a.received(); len(got) != 1 || got[0] != "joined" {
		t.Errorf("a received %v", got)
	}
	if got := b.received(); len(got) != 1 {
		t.Errorf("b received %v", got)
	}
	if got := outsider.received(); len(got) != 0 {
		t.Errorf("outsider received %v, want nothing", got)
	}
}

func TestLeaveGroupStopsDelivery(t *testing.T) {
	h := NewHub()
	a := &fakeClient{id: "a"}
	h.Register(a)
	h.JoinGroup("ABCD", "a")
	h.LeaveGroup("ABCD", "a")

	h.Broadcast(context.Background(), "ABCD", "joined", nil)
	if got := a.received(); len(got) != 0 {
		t.Errorf("a received %v after leaving the group", got)
	}
}

func TestSendUnknownClientIsQuiet(t *testing.T) {
	h := NewHub()
	// must not panic or block
	h.Send(context.Background(), "ghost", "offer", nil)
}

func TestUnregisterSweepsGroups(t *testing.T) {
	h := NewHub()
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	h.Register(a)
	h.Register(b)
	h.JoinGroup("ABCD", "a")
	h.JoinGroup("ABCD", "b")

	h.Unregister(a.id)
	h.Broadcast(context.Background(), "ABCD", "leave", nil)

	if got := a.received(); len(got) != 0 {
		t.Errorf("unregistered client received %v", got)
	}
	if got := b.received(); len(got) != 1 {
		t.Errorf("b received %v, want the broadcast", got)
	}
}

func TestStopClosesClients(t *testing.T) {
	h := NewHub()
	a := &fakeClient{id: "a"}
	h.Register(a)
	h.Stop()

	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if !closed {
		t.Error("Stop must close registered clients")
	}
	h.Send(context.Background(), "a", "offer", nil)
	if got := a.received(); len(got) != 0 {
		t.Errorf("client reachable after Stop: %v", got)
	}
}
