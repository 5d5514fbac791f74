package websocket

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"quickchat-backend/internal/dto"
)

type fakeTransport struct {
	id     string
	userID string

	mu     sync.Mutex
	events []Event
	closed bool
	full   bool
}

func newFakeTransport(id, userID string) *fakeTransport {
	return &fakeTransport{id: id, userID: userID}
}

func (f *fakeTransport) ID() string     { return f.id }
func (f *fakeTransport) UserID() string { return f.userID }

func (f *fakeTransport) Send(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) ofType(eventType string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, 0)
	for _, ev := range f.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeTransport) lastPresence(t *testing.T) []string {
	t.Helper()
	events := f.ofType(EventOnlineUsersChanged)
	if len(events) == 0 {
		t.Fatalf("transport %s received no presence event", f.id)
	}
	var users []string
	if err := json.Unmarshal(events[len(events)-1].Payload, &users); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	return users
}

func frame(t *testing.T, eventType string, payload any) []byte {
	t.Helper()
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return data
}

func TestHubCallScenario(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")

	hub.handleRegister(a)
	if got := a.lastPresence(t); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("expected [A], got %v", got)
	}

	hub.handleRegister(b)
	for _, tr := range []*fakeTransport{a, b} {
		if got := tr.lastPresence(t); !reflect.DeepEqual(got, []string{"A", "B"}) {
			t.Fatalf("%s: expected [A B], got %v", tr.id, got)
		}
	}

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	hub.handleInbound(a, frame(t, EventCallInitiate, CallInitiatePayload{
		TargetUserID: "B",
		Offer:        offer,
		CallerID:     "A",
		CallerName:   "Alice",
	}))

	incoming := b.ofType(EventIncomingCall)
	if len(incoming) != 1 {
		t.Fatalf("expected 1 incoming-call, got %d", len(incoming))
	}
	var call IncomingCallPayload
	if err := json.Unmarshal(incoming[0].Payload, &call); err != nil {
		t.Fatalf("decode incoming-call: %v", err)
	}
	if string(call.Offer) != string(offer) {
		t.Fatalf("offer was modified: %s", call.Offer)
	}
	if call.CallerID != "A" || call.CallerName != "Alice" {
		t.Fatalf("unexpected caller %#v", call)
	}

	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	hub.handleInbound(b, frame(t, EventCallAccept, CallAcceptPayload{TargetUserID: "A", Answer: answer}))

	accepted := a.ofType(EventCallAccepted)
	if len(accepted) != 1 {
		t.Fatalf("expected 1 call-accepted, got %d", len(accepted))
	}
	var acc CallAcceptedPayload
	if err := json.Unmarshal(accepted[0].Payload, &acc); err != nil {
		t.Fatalf("decode call-accepted: %v", err)
	}
	if string(acc.Answer) != string(answer) {
		t.Fatalf("answer was modified: %s", acc.Answer)
	}

	hub.handleInbound(a, frame(t, EventCallEnd, CallEndPayload{TargetUserID: "B"}))
	if n := len(b.ofType(EventCallEnded)); n != 1 {
		t.Fatalf("expected 1 call-ended, got %d", n)
	}

	hub.handleUnregister(a)
	if got := b.lastPresence(t); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("expected [B], got %v", got)
	}
	if !a.isClosed() {
		t.Fatal("expected A transport to be closed")
	}

	aBefore, bBefore := a.count(), b.count()
	hub.handleInbound(b, frame(t, EventCallEnd, CallEndPayload{TargetUserID: "A"}))
	if a.count() != aBefore || b.count() != bBefore {
		t.Fatalf("expected call-end to offline A to be dropped, got a+%d b+%d", a.count()-aBefore, b.count()-bBefore)
	}
	if _, ok := hub.registry.Lookup("A"); ok {
		t.Fatal("expected A to stay offline")
	}
}

func TestHubInitiateToOfflineUserIsDropped(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	hub.handleRegister(a)
	before := a.count()

	hub.handleInbound(a, frame(t, EventCallInitiate, CallInitiatePayload{TargetUserID: "Z", Offer: json.RawMessage(`{}`)}))

	if a.count() != before {
		t.Fatalf("expected no events back to caller, got %d new", a.count()-before)
	}
	if got := a.lastPresence(t); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("registry changed: %v", got)
	}
}

func TestHubAcceptAfterCallerDisconnected(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(a)
	hub.handleRegister(b)

	hub.handleUnregister(a)
	hub.handleInbound(b, frame(t, EventCallAccept, CallAcceptPayload{TargetUserID: "A", Answer: json.RawMessage(`"sdp"`)}))

	if n := len(a.ofType(EventCallAccepted)); n != 0 {
		t.Fatalf("expected nothing delivered to disconnected caller, got %d", n)
	}
	if got := b.lastPresence(t); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("expected [B], got %v", got)
	}
}

func TestHubEmptyCallerIDUsesSender(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(a)
	hub.handleRegister(b)

	hub.handleInbound(a, frame(t, EventCallInitiate, CallInitiatePayload{TargetUserID: "B"}))

	incoming := b.ofType(EventIncomingCall)
	if len(incoming) != 1 {
		t.Fatalf("expected 1 incoming-call, got %d", len(incoming))
	}
	var call IncomingCallPayload
	if err := json.Unmarshal(incoming[0].Payload, &call); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.CallerID != "A" {
		t.Fatalf("expected caller A, got %q", call.CallerID)
	}
}

func TestHubRelaysICECandidates(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(a)
	hub.handleRegister(b)

	candidate := json.RawMessage(`{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}`)
	hub.handleInbound(a, frame(t, EventICECandidate, ICECandidatePayload{TargetUserID: "B", Candidate: candidate}))

	got := b.ofType(EventICECandidate)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	var p RelayedICECandidatePayload
	if err := json.Unmarshal(got[0].Payload, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FromUserID != "A" || string(p.Candidate) != string(candidate) {
		t.Fatalf("unexpected candidate payload %#v", p)
	}
}

func TestHubIgnoresMalformedFrames(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(a)
	hub.handleRegister(b)
	before := b.count()

	hub.handleInbound(a, []byte("not json"))
	hub.handleInbound(a, []byte(`{"type":"call-initiate","payload":"B"}`))
	hub.handleInbound(a, []byte(`{"type":"dance","payload":{"targetUserId":"B"}}`))

	if b.count() != before {
		t.Fatalf("expected no events for malformed frames, got %d", b.count()-before)
	}

	hub.handleInbound(a, frame(t, EventCallEnd, CallEndPayload{TargetUserID: "B"}))
	if n := len(b.ofType(EventCallEnded)); n != 1 {
		t.Fatalf("hub stopped relaying after malformed input, got %d call-ended", n)
	}
}

func TestHubSupersededTransportDisconnect(t *testing.T) {
	hub := NewHub(HubConfig{})
	old := newFakeTransport("t-old", "A")
	fresh := newFakeTransport("t-new", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(old)
	hub.handleRegister(b)
	hub.handleRegister(fresh)
	presenceBefore := len(b.ofType(EventOnlineUsersChanged))

	hub.handleUnregister(old)

	if got := len(b.ofType(EventOnlineUsersChanged)); got != presenceBefore {
		t.Fatalf("expected no presence broadcast for superseded disconnect, got %d new", got-presenceBefore)
	}
	if id, ok := hub.registry.Lookup("A"); !ok || id != "t-new" {
		t.Fatalf("expected A to stay on t-new, got %q (ok=%v)", id, ok)
	}

	hub.handleInbound(b, frame(t, EventCallEnd, CallEndPayload{TargetUserID: "A"}))
	if n := len(fresh.ofType(EventCallEnded)); n != 1 {
		t.Fatalf("expected newer transport to receive call-ended, got %d", n)
	}
	if n := len(old.ofType(EventCallEnded)); n != 0 {
		t.Fatalf("expected superseded transport to receive nothing, got %d", n)
	}
}

func TestHubCallEndOnDisconnect(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		want    int
	}{
		{name: "disabled", enabled: false, want: 0},
		{name: "enabled", enabled: true, want: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hub := NewHub(HubConfig{CallEndOnDisconnect: tc.enabled})
			a := newFakeTransport("ta", "A")
			b := newFakeTransport("tb", "B")
			hub.handleRegister(a)
			hub.handleRegister(b)

			hub.handleInbound(a, frame(t, EventCallInitiate, CallInitiatePayload{TargetUserID: "B"}))
			hub.handleUnregister(a)

			if n := len(b.ofType(EventCallEnded)); n != tc.want {
				t.Fatalf("expected %d call-ended, got %d", tc.want, n)
			}
		})
	}
}

func TestHubOutboxFullDropsEvent(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(a)
	hub.handleRegister(b)
	b.full = true

	hub.handleInbound(a, frame(t, EventCallEnd, CallEndPayload{TargetUserID: "B"}))

	if b.isClosed() {
		t.Fatal("a full outbox must not close the transport")
	}
	if _, ok := hub.registry.Lookup("B"); !ok {
		t.Fatal("a full outbox must not unregister the user")
	}
}

func TestHubMessageNotifications(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.handleRegister(a)
	hub.handleRegister(b)

	created, err := NewEvent(EventMessageCreated, MessageCreatedPayload{Message: dto.MessageResponse{MessageID: "m1", SenderID: "A", ReceiverID: "B"}})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	hub.handleDelivery(delivery{userIDs: []string{"B"}, event: created})

	if n := len(b.ofType(EventMessageCreated)); n != 1 {
		t.Fatalf("expected receiver to get message-created, got %d", n)
	}
	if n := len(a.ofType(EventMessageCreated)); n != 0 {
		t.Fatalf("expected sender to get nothing, got %d", n)
	}

	hub.handleUnregister(b)
	deleted, _ := NewEvent(EventMessageDeleted, MessageDeletedPayload{MessageID: "m1"})
	hub.handleDelivery(delivery{userIDs: []string{"A", "B"}, event: deleted})

	if n := len(a.ofType(EventMessageDeleted)); n != 1 {
		t.Fatalf("expected online sender to get message-deleted, got %d", n)
	}
	if n := len(b.ofType(EventMessageDeleted)); n != 0 {
		t.Fatalf("expected offline receiver to get nothing, got %d", n)
	}
}

// drain applies every queued operation without a running loop.
func drain(hub *Hub) {
	for {
		select {
		case op := <-hub.ops:
			hub.apply(op)
		default:
			return
		}
	}
}

func TestHubMessageDeletedReachesBothParticipants(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	c := newFakeTransport("tc", "C")
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)
	hub.NotifyMessageDeleted("m1", "A", "B")
	drain(hub)

	for _, tr := range []*fakeTransport{a, b} {
		if n := len(tr.ofType(EventMessageDeleted)); n != 1 {
			t.Fatalf("%s: expected 1 message-deleted, got %d", tr.id, n)
		}
	}
	if n := len(c.ofType(EventMessageDeleted)); n != 0 {
		t.Fatalf("expected bystander to get nothing, got %d", n)
	}
}

func TestHubMessageDeletedBothOffline(t *testing.T) {
	hub := NewHub(HubConfig{})
	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	c := newFakeTransport("tc", "C")
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)
	hub.Unregister(a)
	hub.Unregister(b)
	drain(hub)
	aBefore, bBefore, cBefore := a.count(), b.count(), c.count()

	hub.NotifyMessageDeleted("m1", "A", "B")
	drain(hub)

	if a.count() != aBefore || b.count() != bBefore || c.count() != cBefore {
		t.Fatalf("expected no deliveries, got a+%d b+%d c+%d", a.count()-aBefore, b.count()-bBefore, c.count()-cBefore)
	}
	if got := c.lastPresence(t); !reflect.DeepEqual(got, []string{"C"}) {
		t.Fatalf("expected [C], got %v", got)
	}
}

func TestHubAppliesOperationsInSubmissionOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		hub := NewHub(HubConfig{})
		a := newFakeTransport("ta", "A")
		b := newFakeTransport("tb", "B")

		hub.Register(a)
		hub.Unregister(a)
		hub.Register(b)
		hub.NotifyMessageCreated(dto.MessageResponse{MessageID: "m1", SenderID: "A", ReceiverID: "B"})
		go hub.Run()

		waitFor(t, func() bool { return len(b.ofType(EventMessageCreated)) == 1 })
		hub.Stop()

		if !a.isClosed() {
			t.Fatalf("run %d: expected disconnected transport to be closed", i)
		}
		if got := b.lastPresence(t); !reflect.DeepEqual(got, []string{"B"}) {
			t.Fatalf("run %d: expected [B] after A disconnected, got %v", i, got)
		}
	}
}

func TestHubRunAndStop(t *testing.T) {
	hub := NewHub(HubConfig{})
	go hub.Run()

	a := newFakeTransport("ta", "A")
	b := newFakeTransport("tb", "B")
	hub.Register(a)
	hub.Register(b)
	hub.NotifyMessageCreated(dto.MessageResponse{MessageID: "m1", SenderID: "A", ReceiverID: "B"})
	hub.NotifyMessageDeleted("m1", "A", "A")

	waitFor(t, func() bool {
		return len(b.ofType(EventMessageCreated)) == 1 && len(a.ofType(EventMessageDeleted)) == 1
	})

	hub.Stop()
	if !a.isClosed() || !b.isClosed() {
		t.Fatal("expected stop to close every transport")
	}

	done := make(chan struct{})
	go func() {
		hub.Register(newFakeTransport("tc", "C"))
		hub.Dispatch(a, []byte("{}"))
		hub.NotifyMessageDeleted("m2", "A", "B")
		hub.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submissions after stop blocked")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
