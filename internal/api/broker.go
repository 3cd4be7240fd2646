package api

import (
	"sync"

	"mealroute/internal/model"
)

// RouteBroker fans route updates out to streaming clients. The in-memory
// implementation serves a single process; the Redis one bridges processes.
type RouteBroker interface {
	Subscribe() chan model.RoutesUpdate
	Unsubscribe(ch chan model.RoutesUpdate)
	PublishRoutes(upd model.RoutesUpdate)
}

type Broker struct {
	mu   sync.Mutex
	subs map[chan model.RoutesUpdate]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan model.RoutesUpdate]struct{}{}}
}

func (b *Broker) Subscribe() chan model.RoutesUpdate {
	ch := make(chan model.RoutesUpdate, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan model.RoutesUpdate) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Broker) PublishRoutes(upd model.RoutesUpdate) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- upd:
		default:
		}
	}
	b.mu.Unlock()
}
