package app

import (
	"sync"

	"itemboard/internal/domain"
)

// AuthStateProvider is the slice of AuthService that the broadcaster
// depends on: a single push subscription to authenticated-user changes.
type AuthStateProvider interface {
	SubscribeAuthState(fn func(*domain.User)) (cancel func())
}

// SessionBroadcaster subscribes once to provider auth-state notifications
// and republishes the current Session snapshot to all consumers. Consumers
// that read before the first provider notification observe IsLoading=true;
// the loading state is left exactly once and never re-entered.
type SessionBroadcaster struct {
	mu       sync.Mutex
	session  domain.Session
	watchers map[int]*sessionWatcher
	nextID   int

	cancelProvider func()
	closed         bool
}

// NewSessionBroadcaster creates a broadcaster bound to the given provider.
func NewSessionBroadcaster(provider AuthStateProvider) *SessionBroadcaster {
	b := &SessionBroadcaster{
		session:  domain.Session{IsLoading: true},
		watchers: make(map[int]*sessionWatcher),
	}
	b.cancelProvider = provider.SubscribeAuthState(b.onAuthState)
	return b
}

// Current returns the latest published Session snapshot.
func (b *SessionBroadcaster) Current() domain.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Subscribe registers fn to receive Session snapshots, starting with the
// current one. Deliveries are per-subscription ordered; rapid intermediate
// snapshots may be coalesced so that fn always observes the freshest state.
// The returned cancel function stops deliveries and must be called when the
// consumer is done.
func (b *SessionBroadcaster) Subscribe(fn func(domain.Session)) (cancel func()) {
	w := newSessionWatcher(fn)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = w
	w.push(b.session)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.watchers, id)
			b.mu.Unlock()
			w.stop()
		})
	}
}

// Close releases the provider subscription and stops all consumers.
func (b *SessionBroadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	ws := b.watchers
	b.watchers = make(map[int]*sessionWatcher)
	b.mu.Unlock()

	b.cancelProvider()
	for _, w := range ws {
		w.stop()
	}
}

// onAuthState is the single provider callback. The snapshot is replaced
// whole; consumers never observe a partially updated Session.
func (b *SessionBroadcaster) onAuthState(u *domain.User) {
	next := domain.Session{
		User:       u,
		IsLoggedIn: u != nil,
		IsLoading:  false,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.session = next
	for _, w := range b.watchers {
		w.push(next)
	}
	b.mu.Unlock()
}

// sessionWatcher delivers snapshots to one consumer from a dedicated
// goroutine. A one-slot mailbox keeps at most one undelivered snapshot:
// newer snapshots overwrite older undelivered ones.
type sessionWatcher struct {
	mu      sync.Mutex
	pending domain.Session

	signal   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSessionWatcher(fn func(domain.Session)) *sessionWatcher {
	w := &sessionWatcher{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-w.done:
				return
			case <-w.signal:
				w.mu.Lock()
				s := w.pending
				w.mu.Unlock()
				fn(s)
			}
		}
	}()
	return w
}

func (w *sessionWatcher) push(s domain.Session) {
	w.mu.Lock()
	w.pending = s
	w.mu.Unlock()
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *sessionWatcher) stop() {
	w.stopOnce.Do(func() { close(w.done) })
}
