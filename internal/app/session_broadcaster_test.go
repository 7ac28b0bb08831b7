package app

import (
	"testing"
	"time"

	"itemboard/internal/domain"
)

// fakeAuthProvider lets tests drive auth-state notifications by hand.
type fakeAuthProvider struct {
	fn        func(*domain.User)
	cancelled bool
}

func (p *fakeAuthProvider) SubscribeAuthState(fn func(*domain.User)) func() {
	p.fn = fn
	return func() { p.cancelled = true }
}

func recvSession(t *testing.T, ch <-chan domain.Session) domain.Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a session delivery")
		return domain.Session{}
	}
}

func TestSessionBroadcaster_InitialLoading(t *testing.T) {
	provider := &fakeAuthProvider{}
	b := NewSessionBroadcaster(provider)
	defer b.Close()

	got := b.Current()
	if !got.IsLoading || got.IsLoggedIn || got.User != nil {
		t.Errorf("initial session = %+v; want loading, logged out", got)
	}

	ch := make(chan domain.Session, 4)
	cancel := b.Subscribe(func(s domain.Session) { ch <- s })
	defer cancel()

	if s := recvSession(t, ch); !s.IsLoading {
		t.Errorf("first delivery = %+v; want loading", s)
	}
}

func TestSessionBroadcaster_Transitions(t *testing.T) {
	provider := &fakeAuthProvider{}
	b := NewSessionBroadcaster(provider)
	defer b.Close()

	ch := make(chan domain.Session, 8)
	cancel := b.Subscribe(func(s domain.Session) { ch <- s })
	defer cancel()
	recvSession(t, ch) // loading snapshot

	user := &domain.User{ID: "u1", Email: "a@x.com"}
	provider.fn(user)
	s := recvSession(t, ch)
	if s.IsLoading || !s.IsLoggedIn || s.User == nil || s.User.ID != "u1" {
		t.Errorf("after sign-in: %+v", s)
	}

	provider.fn(nil)
	s = recvSession(t, ch)
	if s.IsLoading || s.IsLoggedIn || s.User != nil {
		t.Errorf("after sign-out: %+v", s)
	}

	// Loading is entered once and never re-entered.
	provider.fn(user)
	if s = recvSession(t, ch); s.IsLoading {
		t.Errorf("loading re-entered: %+v", s)
	}

	if got := domain.ResolveRoute(b.Current()); got != domain.Allow {
		t.Errorf("ResolveRoute = %v; want %v", got, domain.Allow)
	}
}

func TestSessionBroadcaster_CoalescesToFreshest(t *testing.T) {
	provider := &fakeAuthProvider{}
	b := NewSessionBroadcaster(provider)
	defer b.Close()

	done := make(chan domain.Session, 64)
	cancel := b.Subscribe(func(s domain.Session) {
		done <- s
	})
	defer cancel()

	last := &domain.User{ID: "u99"}
	for i := 0; i < 50; i++ {
		provider.fn(&domain.User{ID: "stale"})
	}
	provider.fn(last)

	// Deliveries may be coalesced, but the final observed snapshot must be
	// the freshest one.
	deadline := time.After(2 * time.Second)
	var final domain.Session
	for {
		select {
		case s := <-done:
			final = s
			if s.User != nil && s.User.ID == last.ID {
				return
			}
		case <-deadline:
			t.Fatalf("freshest snapshot never delivered; last seen %+v", final)
		}
	}
}

func TestSessionBroadcaster_Close(t *testing.T) {
	provider := &fakeAuthProvider{}
	b := NewSessionBroadcaster(provider)

	ch := make(chan domain.Session, 4)
	b.Subscribe(func(s domain.Session) { ch <- s })
	recvSession(t, ch)

	b.Close()
	if !provider.cancelled {
		t.Error("expected the provider subscription to be released")
	}

	provider.fn(&domain.User{ID: "u1"})
	select {
	case s := <-ch:
		t.Errorf("unexpected delivery after close: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}
