package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mobiclear/mobiclear/internal/model"
)

// ErrNoRoute indicates the destination party has no registered handler.
var ErrNoRoute = errors.New("no route to party")

// ErrSessionClosed indicates the peer closed the session.
var ErrSessionClosed = errors.New("session closed")

// Session is one point-to-point protocol conversation. Receive blocks only
// the logical protocol step; delivery reliability belongs to the transport
// collaborator.
type Session interface {
	Send(msg any) error
	Receive(ctx context.Context) (any, error)
	Peer() model.Party
	Close() error
}

// Transport opens sessions to identified parties.
type Transport interface {
	Open(ctx context.Context, from, to model.Party) (Session, error)
}

// Handler serves one inbound session. It runs on its own goroutine and owns
// the session for the conversation's lifetime.
type Handler func(ctx context.Context, s Session)

// Bus is an in-process transport pairing initiator and responder sessions
// over channels. It stands in for the reliable messaging collaborator in
// tests and single-node deployments.
type Bus struct {
	mu       sync.RWMutex
	handlers map[model.Party]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[model.Party]Handler)}
}

// Register installs the handler serving inbound sessions for a party.
func (b *Bus) Register(party model.Party, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[party] = h
}

// Open creates a session pair and hands the responder end to the
// destination party's handler.
func (b *Bus) Open(ctx context.Context, from, to model.Party) (Session, error) {
	b.mu.RLock()
	h, ok := b.handlers[to]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, to)
	}

	ab := make(chan any)
	ba := make(chan any)
	cl := &closer{ch: make(chan struct{})}
	initiator := &session{peer: to, in: ba, out: ab, cl: cl}
	responder := &session{peer: from, in: ab, out: ba, cl: cl}

	go h(ctx, responder)
	return initiator, nil
}

// closer is shared by both ends of a session pair so either side may close.
type closer struct {
	once sync.Once
	ch   chan struct{}
}

func (c *closer) close() { c.once.Do(func() { close(c.ch) }) }

type session struct {
	peer model.Party
	in   <-chan any
	out  chan<- any
	cl   *closer
}

func (s *session) Peer() model.Party { return s.peer }

func (s *session) Send(msg any) error {
	select {
	case s.out <- msg:
		return nil
	case <-s.cl.ch:
		return ErrSessionClosed
	}
}

func (s *session) Receive(ctx context.Context) (any, error) {
	select {
	case msg := <-s.in:
		return msg, nil
	case <-s.cl.ch:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *session) Close() error {
	s.cl.close()
	return nil
}

// Expect receives the next message and asserts its type.
func Expect[T any](ctx context.Context, s Session) (T, error) {
	var zero T
	msg, err := s.Receive(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := msg.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected message %T from %s", msg, s.Peer())
	}
	return v, nil
}
