package ws

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Mutation event kinds pushed to observers.
const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
)

// Event is the payload fanned out to every live observer.
type Event struct {
	Event string      `json:"event"`
	Task  interface{} `json:"task"`
}

// Observer is a live connected client. *websocket.Conn satisfies it.
type Observer interface {
	WriteJSON(v interface{}) error
}

// Manager is the process-local registry of live observers. One instance is
// created at startup and shared by every request and connection handler;
// the mutex serializes broadcasts against each other and against
// registration, so no observer is ever written to concurrently.
type Manager struct {
	mu        sync.Mutex
	observers []Observer
	log       *logrus.Logger
}

func NewManager(log *logrus.Logger) *Manager {
	return &Manager{log: log}
}

// Register adds the observer to the live set.
func (m *Manager) Register(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Deregister removes the observer from the live set. Removing an observer
// that is already gone is a no-op.
func (m *Manager) Deregister(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.observers {
		if existing == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// Broadcast sends the event to every currently-live observer in registration
// order. The lock is held for the whole fan-out: gorilla connections allow at
// most one concurrent writer, so sends from concurrent mutations must be
// serialized, and observers joining or leaving wait for the fan-out to
// finish. A failed send is logged and skipped; the failing observer is
// pruned by its own disconnect path.
func (m *Manager) Broadcast(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.observers {
		if err := o.WriteJSON(event); err != nil {
			m.log.WithError(err).WithField("event", event.Event).
				Warn("broadcast to observer failed")
		}
	}
}

// Count reports the number of live observers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}
