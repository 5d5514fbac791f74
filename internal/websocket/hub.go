package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

const defaultHubQueueSize = 256

type HubConfig struct {
	// CallEndOnDisconnect sends call-ended to the remaining peer when one side
	// of a relayed call disconnects.
	CallEndOnDisconnect bool
	QueueSize           int
}

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opInbound
	opDeliver
)

// hubOp is one unit of work for the Run loop. Every input shares a single
// channel so operations are applied in submission order.
type hubOp struct {
	kind      opKind
	transport Transport
	data      []byte
	delivery  delivery
}

type delivery struct {
	userIDs []string
	event   Event
}

// Hub owns the registry and every connected transport. All state is touched
// only from the Run goroutine; other goroutines submit work over channels.
type Hub struct {
	registry   *Registry
	transports map[string]Transport
	calls      map[string]string

	callEndOnDisconnect bool

	ops chan hubOp

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

func NewHub(cfg HubConfig) *Hub {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultHubQueueSize
	}

	return &Hub{
		registry:            NewRegistry(),
		transports:          make(map[string]Transport),
		calls:               make(map[string]string),
		callEndOnDisconnect: cfg.CallEndOnDisconnect,
		ops:                 make(chan hubOp, size),
		quit:                make(chan struct{}),
		done:                make(chan struct{}),
	}
}

func (h *Hub) Run() {
	h.running.Store(true)
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAll()
			return
		case op := <-h.ops:
			h.apply(op)
		}
	}
}

func (h *Hub) apply(op hubOp) {
	switch op.kind {
	case opRegister:
		h.handleRegister(op.transport)
	case opUnregister:
		h.handleUnregister(op.transport)
	case opInbound:
		h.handleInbound(op.transport, op.data)
	case opDeliver:
		h.handleDelivery(op.delivery)
	}
}

// Stop ends the loop and closes every transport. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
	if h.running.Load() {
		<-h.done
	}
}

func (h *Hub) Register(t Transport) {
	h.submit(hubOp{kind: opRegister, transport: t})
}

func (h *Hub) Unregister(t Transport) {
	h.submit(hubOp{kind: opUnregister, transport: t})
}

// Dispatch submits a raw inbound frame read from t.
func (h *Hub) Dispatch(t Transport, data []byte) {
	h.submit(hubOp{kind: opInbound, transport: t, data: data})
}

func (h *Hub) deliver(d delivery) {
	h.submit(hubOp{kind: opDeliver, delivery: d})
}

func (h *Hub) submit(op hubOp) {
	select {
	case h.ops <- op:
	case <-h.quit:
	}
}

func (h *Hub) handleRegister(t Transport) {
	h.transports[t.ID()] = t
	incConnections()

	if prev, ok := h.registry.Lookup(t.UserID()); ok && prev != t.ID() {
		log.Info().Str("user_id", t.UserID()).Str("transport_id", prev).Msg("Transport superseded")
	}
	h.registry.Register(t.UserID(), t.ID())

	log.Info().Str("user_id", t.UserID()).Str("transport_id", t.ID()).Msg("Client registered")
	h.broadcastPresence()
}

func (h *Hub) handleUnregister(t Transport) {
	if _, ok := h.transports[t.ID()]; !ok {
		return
	}
	delete(h.transports, t.ID())
	t.Close()
	decConnections()

	log.Info().Str("user_id", t.UserID()).Str("transport_id", t.ID()).Msg("Client unregistered")

	if !h.registry.UnregisterTransport(t.UserID(), t.ID()) {
		return
	}
	if h.callEndOnDisconnect {
		h.endCall(t.UserID())
	}
	h.broadcastPresence()
}

func (h *Hub) handleDelivery(d delivery) {
	for _, userID := range d.userIDs {
		h.sendToUser(userID, d.event)
	}
}

func (h *Hub) broadcastPresence() {
	online := h.registry.OnlineUsers()
	setOnlineUsers(h.registry.Len())

	ev, err := NewEvent(EventOnlineUsersChanged, online)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build presence event")
		return
	}
	for _, t := range h.transports {
		h.send(t, ev)
	}
}

func (h *Hub) sendToUser(userID string, ev Event) bool {
	transportID, ok := h.registry.Lookup(userID)
	if !ok {
		incDropped(dropReasonOffline)
		return false
	}
	t, ok := h.transports[transportID]
	if !ok {
		incDropped(dropReasonOffline)
		return false
	}
	return h.send(t, ev)
}

func (h *Hub) send(t Transport, ev Event) bool {
	if !t.Send(ev) {
		incDropped(dropReasonOutboxFull)
		log.Warn().Str("transport_id", t.ID()).Str("type", ev.Type).Msg("Outbox full, dropping event")
		return false
	}
	addDelivered(1)
	return true
}

func (h *Hub) closeAll() {
	for id, t := range h.transports {
		t.Close()
		delete(h.transports, id)
		decConnections()
	}
	h.registry = NewRegistry()
	h.calls = make(map[string]string)
	setOnlineUsers(0)
}
