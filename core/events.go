package core

import (
	"sync"
	"time"
)

// Event topics
const (
	TopicEvaluations = "evaluations"
	TopicUsers       = "users"
	TopicTemplates   = "templates"
)

// Event notifies subscribers that a stored resource changed.
type Event struct {
	Topic string
	ID    string
	At    time.Time
}

// Broker fans change events out to in-process subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event,
// which is fine since every event only means "something changed, recompute".
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its channel and a cancel func.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) Publish(topic, id string) {
	ev := Event{Topic: topic, ID: id, At: time.Now().UTC()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
