package generation

import (
	"sync"

	"survey-builder/internal/domain"
)

// Broadcaster fans generated surveys out to subscribed listeners. Delivery is
// synchronous and in subscription order.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Notifier
	order     []int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Notifier)}
}

// Subscribe registers n and returns the function that removes it.
func (b *Broadcaster) Subscribe(n Notifier) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = n
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// SurveyGenerated implements Notifier.
func (b *Broadcaster) SurveyGenerated(survey domain.ImportedSurvey) {
	b.mu.RLock()
	targets := make([]Notifier, 0, len(b.order))
	for _, id := range b.order {
		targets = append(targets, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, n := range targets {
		n.SurveyGenerated(survey)
	}
}
