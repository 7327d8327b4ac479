package messaging

import (
	"context"
	"errors"
	"testing"
)

func TestBusRoundTrip(t *testing.T) {
	bus := NewBus()
	bus.Register("echo", func(ctx context.Context, s Session) {
		defer s.Close()
		msg, err := s.Receive(ctx)
		if err != nil {
			return
		}
		_ = s.Send(msg)
	})

	ctx := context.Background()
	s, err := bus.Open(ctx, "caller", "echo")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if s.Peer() != "echo" {
		t.Fatalf("peer = %s", s.Peer())
	}
	if err := s.Send("ping"); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := Expect[string](ctx, s)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got != "ping" {
		t.Fatalf("got %q", got)
	}
}

func TestBusNoRoute(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Open(context.Background(), "caller", "nobody"); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestSessionCloseUnblocksReceive(t *testing.T) {
	bus := NewBus()
	bus.Register("silent", func(ctx context.Context, s Session) {
		s.Close()
	})

	s, err := bus.Open(context.Background(), "caller", "silent")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Receive(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	// Closing the other end too must not panic.
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestExpectRejectsWrongType(t *testing.T) {
	bus := NewBus()
	bus.Register("numbers", func(ctx context.Context, s Session) {
		defer s.Close()
		_ = s.Send(42)
	})

	ctx := context.Background()
	s, err := bus.Open(ctx, "caller", "numbers")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, err := Expect[string](ctx, s); err == nil {
		t.Fatalf("expected a type error")
	}
}
