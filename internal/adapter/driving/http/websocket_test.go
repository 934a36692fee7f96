package http

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mireva/tete/internal/adapter/driven/gateway/ws"
	"github.com/mireva/tete/internal/adapter/driven/persistence/memory"
	"github.com/mireva/tete/internal/core/service"
	"github.com/rs/zerolog/log"
)

func newDispatchFixture(t *testing.T) (*Handler, *service.Registry) {
	t.Helper()
	registry := service.NewRegistry()
	hub := ws.NewHub()
	persist := service.NewPersister(memory.NewStore(), registry)
	session := service.NewSessionService(registry, hub, persist)
	relay := service.NewRelayService(registry, hub)
	return NewHandler(session, relay, registry, hub), registry
}

func testClient(id string) *WSClient {
	return &WSClient{
		id:   id,
		send: make(chan outbound, sendQueueSize),
		done: make(chan struct{}),
		log:  log.With().Str("client_id", id).Logger(),
	}
}

func event(name string, data string) envelope {
	return envelope{Event: name, Data: json.RawMessage(data)}
}

func TestDispatchCreateAndJoin(t *testing.T) {
	h, registry := newDispatchFixture(t)
	ctx := context.Background()
	a := testClient("A")
	b := testClient("B")
	h.Hub.Register(a)
	h.Hub.Register(b)

	if _, err := h.dispatch(ctx, a, event("create", `{"room":"ABCD"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.dispatch(ctx, b, event("join", `{"room":"ABCD"}`)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := registry.Participants("ABCD"); len(got) != 2 {
		t.Fatalf("participants = %v", got)
	}

	// A, the first participant, got the peer_joined push.
	var gotPeerJoined bool
	for len(a.send) > 0 {
		if msg := <-a.send; msg.Event == "peer_joined" {
			gotPeerJoined = true
		}
	}
	if !gotPeerJoined {
		t.Error("no peer_joined delivered to A")
	}
	for len(b.send) > 0 {
		if msg := <-b.send; msg.Event == "peer_joined" {
			t.Error("peer_joined must go only to the first participant")
		}
	}
}

func TestDispatchErrorsAreStructured(t *testing.T) {
	h, _ := newDispatchFixture(t)
	ctx := context.Background()
	c := testClient("A")

	tests := []struct {
		name    string
		env     envelope
		wantErr string
	}{
		{"join unknown room", event("join", `{"room":"ZZZZ"}`), "Room does not exist"},
		{"create short code", event("create", `{"room":"AB"}`), "Room code must be at least 4 characters"},
		{"missing room", event("join", `{}`), "Missing required field: room"},
		{"offer without body", event("offer", `{"room":"ABCD"}`), "Missing required field: offer"},
		{"answer without body", event("answer", `{"room":"ABCD"}`), "Missing required field: answer"},
		{"ice without candidate", event("ice", `{"room":"ABCD"}`), "Missing required field: candidate"},
		{"leave_message without body", event("leave_message", `{"room":"ABCD"}`), "Missing required field: message"},
		{"unknown event", event("teleport", `{}`), "Unknown event: teleport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.dispatch(ctx, c, tt.env)
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDispatchRelaysVerbatim(t *testing.T) {
	h, _ := newDispatchFixture(t)
	ctx := context.Background()
	a := testClient("A")
	b := testClient("B")
	h.Hub.Register(a)
	h.Hub.Register(b)

	if _, err := h.dispatch(ctx, a, event("create", `{"room":"ABCD"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.dispatch(ctx, b, event("join", `{"room":"ABCD"}`)); err != nil {
		t.Fatalf("join: %v", err)
	}
	drain(a)
	drain(b)

	payload := `{"room":"ABCD","offer":{"type":"offer","sdp":"v=0"}}`
	if _, err := h.dispatch(ctx, a, event("offer", payload)); err != nil {
		t.Fatalf("offer: %v", err)
	}

	select {
	case msg := <-b.send:
		if msg.Event != "offer" {
			t.Fatalf("B received %q, want offer", msg.Event)
		}
		raw, ok := msg.Data.(json.RawMessage)
		if !ok {
			t.Fatalf("relayed data is %T, want raw bytes", msg.Data)
		}
		if string(raw) != payload {
			t.Errorf("payload = %s, want verbatim %s", raw, payload)
		}
	default:
		t.Fatal("offer never reached B")
	}
	if len(a.send) != 0 {
		t.Error("sender must not receive its own signal")
	}
}

func drain(c *WSClient) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}
