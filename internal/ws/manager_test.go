package ws_test

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"tasktracker/internal/ws"
)

type fakeObserver struct {
	mu     sync.Mutex
	events []ws.Event
	fail   bool
}

func (o *fakeObserver) WriteJSON(v interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("connection lost")
	}
	o.events = append(o.events, v.(ws.Event))
	return nil
}

func (o *fakeObserver) received() []ws.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ws.Event(nil), o.events...)
}

func newTestManager() *ws.Manager {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return ws.NewManager(log)
}

func TestBroadcast_DeliversToAllObserversOnce(t *testing.T) {
	manager := newTestManager()
	first := &fakeObserver{}
	second := &fakeObserver{}
	manager.Register(first)
	manager.Register(second)

	event := ws.Event{Event: ws.EventTaskCreated, Task: map[string]any{"id": 1}}
	manager.Broadcast(event)

	assert.Equal(t, []ws.Event{event}, first.received())
	assert.Equal(t, []ws.Event{event}, second.received())
}

func TestBroadcast_AfterDeregisterReachesOnlyRemaining(t *testing.T) {
	manager := newTestManager()
	first := &fakeObserver{}
	second := &fakeObserver{}
	manager.Register(first)
	manager.Register(second)

	manager.Deregister(first)
	manager.Broadcast(ws.Event{Event: ws.EventTaskUpdated})

	assert.Empty(t, first.received())
	assert.Len(t, second.received(), 1)
	assert.Equal(t, 1, manager.Count())
}

func TestDeregister_AbsentObserverIsNoop(t *testing.T) {
	manager := newTestManager()
	observer := &fakeObserver{}

	manager.Deregister(observer)
	manager.Register(observer)
	manager.Deregister(observer)
	manager.Deregister(observer)

	assert.Equal(t, 0, manager.Count())
}

func TestBroadcast_FailedSendDoesNotBlockOthers(t *testing.T) {
	manager := newTestManager()
	failing := &fakeObserver{fail: true}
	healthy := &fakeObserver{}
	manager.Register(failing)
	manager.Register(healthy)

	manager.Broadcast(ws.Event{Event: ws.EventTaskDeleted})

	assert.Len(t, healthy.received(), 1)
	// Broadcast never prunes; the failing observer's disconnect path does
	assert.Equal(t, 2, manager.Count())
}

// overlapObserver records whether two WriteJSON calls ever ran at the same
// time. Real connections allow at most one concurrent writer.
type overlapObserver struct {
	inFlight   atomic.Int32
	overlapped atomic.Bool
}

func (o *overlapObserver) WriteJSON(v interface{}) error {
	if o.inFlight.Add(1) > 1 {
		o.overlapped.Store(true)
	}
	runtime.Gosched()
	o.inFlight.Add(-1)
	return nil
}

func TestBroadcast_SendsNeverOverlapPerObserver(t *testing.T) {
	manager := newTestManager()
	observer := &overlapObserver{}
	manager.Register(observer)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			manager.Broadcast(ws.Event{Event: ws.EventTaskUpdated})
		}()
	}
	wg.Wait()

	assert.False(t, observer.overlapped.Load(),
		"WriteJSON entered concurrently on one observer")
}

func TestManager_ConcurrentRegisterDuringBroadcast(t *testing.T) {
	manager := newTestManager()
	for i := 0; i < 10; i++ {
		manager.Register(&fakeObserver{})
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			manager.Register(&fakeObserver{})
		}()
		go func() {
			defer wg.Done()
			manager.Broadcast(ws.Event{Event: ws.EventTaskUpdated})
		}()
	}
	wg.Wait()

	assert.Equal(t, 60, manager.Count())
}
