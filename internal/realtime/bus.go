// Package realtime relays domain events to live-update subscribers over an
// in-process bus and a WebSocket endpoint.
package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hospital-shifts/scheduler/internal/models"
)

const defaultBufSize = 256

// Message is one event delivered on a topic.
type Message struct {
	Topic string
	Event models.RealtimeEvent
}

// Bus is a channel-based pub-sub bus keyed by topic. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]chan Message
	allSubs []chan Message
	closed  bool
	dropped atomic.Int64
	now     func() time.Time
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]chan Message),
		now:  time.Now,
	}
}

// Subscribe returns a channel receiving events on topic and a cancel func
// that detaches and closes it. bufSize <= 0 uses 256.
func (b *Bus) Subscribe(topic string, bufSize int) (<-chan Message, func()) {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	ch := make(chan Message, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[topic] = append(b.subs[topic], ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(topic, ch) })
	}
}

// SubscribeAll receives events from every topic.
func (b *Bus) SubscribeAll(bufSize int) <-chan Message {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	ch := make(chan Message, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.allSubs = append(b.allSubs, ch)
	return ch
}

func (b *Bus) unsubscribe(topic string, ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	list := b.subs[topic]
	for i, c := range list {
		if c == ch {
			b.subs[topic] = append(list[:i:i], list[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish wraps payload in an event envelope and fans it out on topic.
func (b *Bus) Publish(topic, eventType string, payload any) {
	b.PublishMessage(Message{
		Topic: topic,
		Event: models.RealtimeEvent{Type: eventType, Payload: payload, Timestamp: b.now()},
	})
}

// PublishNotice broadcasts a human-readable notification.
func (b *Bus) PublishNotice(noticeType, message string) {
	b.Publish(models.TopicNotifications, noticeType, map[string]string{"message": message})
}

func (b *Bus) PublishMessage(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[msg.Topic] {
		b.offer(ch, msg)
	}
	for _, ch := range b.allSubs {
		b.offer(ch, msg)
	}
}

func (b *Bus) offer(ch chan Message, msg Message) {
	select {
	case ch <- msg:
	default:
		b.dropped.Add(1)
	}
}

// Dropped counts events discarded because a subscriber was full.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Close closes every subscriber channel. Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
}
