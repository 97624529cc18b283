package sessions

import (
	"sync"
	"time"
)

type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
	UserUpdated    EventType = "USER_UPDATED"
)

// Event describes an auth state transition.
type Event struct {
	Type    EventType
	UserID  string
	Session *Session
	At      time.Time
}

// Observer receives auth events. Observers run synchronously on the goroutine
// that caused the transition and must not call back into the Client.
type Observer func(Event)

type observers struct {
	mu      sync.Mutex
	deliver sync.Mutex
	nextID  int
	entries []observerEntry
}

type observerEntry struct {
	id  int
	obs Observer
}

func (o *observers) subscribe(obs Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	id := o.nextID
	o.entries = append(o.entries, observerEntry{id: id, obs: obs})

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, e := range o.entries {
				if e.id == id {
					o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
					return
				}
			}
		})
	}
}

// emit delivers e to every observer in subscription order. Deliveries are
// serialized so all observers see events in the same order.
func (o *observers) emit(e Event) {
	o.mu.Lock()
	entries := append([]observerEntry(nil), o.entries...)
	o.mu.Unlock()

	o.deliver.Lock()
	defer o.deliver.Unlock()
	for _, entry := range entries {
		entry.obs(e)
	}
}
