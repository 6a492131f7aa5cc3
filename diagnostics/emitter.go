// Package diagnostics implements engine.EventEmitter as an in-process
// publish/subscribe hub, so a deployment can attach logging, metrics, or a
// trace store to a bucket execution without the engine package knowing any
// of them exist.
package diagnostics

import (
	"sync"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
)

// Subscriber receives every event published to an Emitter. It must return
// quickly: Emit blocks the step that produced the event until every
// subscriber has seen it.
type Subscriber interface {
	OnEvent(engine.Event)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(engine.Event)

func (f SubscriberFunc) OnEvent(e engine.Event) { f(e) }

// Emitter is an engine.EventEmitter that fans every event out to its
// subscribers and logs it at trace level.
type Emitter struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	log         logger.Log
}

// NewEmitter returns an Emitter that logs through the subsystem name
// "diagnostics" via logFactory.
func NewEmitter(logFactory logger.LogFactory) *Emitter {
	return &Emitter{log: logFactory("diagnostics")}
}

// Subscribe registers sub to receive every subsequent event. It returns an
// unsubscribe function.
func (e *Emitter) Subscribe(sub Subscriber) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, sub)
	idx := len(e.subscribers) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if idx < len(e.subscribers) {
			e.subscribers = append(e.subscribers[:idx], e.subscribers[idx+1:]...)
		}
	}
}

// Emit implements engine.EventEmitter.
func (e *Emitter) Emit(ev engine.Event) {
	e.log.WithField("step", ev.StepID.String()).Tracef("%s: %s", ev.Kind, ev.Detail)

	e.mu.RLock()
	subs := make([]Subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.RUnlock()

	for _, sub := range subs {
		sub.OnEvent(ev)
	}
}
