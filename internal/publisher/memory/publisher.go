// Package memory keeps published notifications in process. Messages carry the
// same JSON body and attributes the Pub/Sub publisher would send.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Message is one recorded publish.
type Message struct {
	ID         string
	Topic      string
	Payload    any
	Data       []byte
	Attributes map[string]string
}

// Publisher records messages in publish order.
type Publisher struct {
	mu   sync.Mutex
	msgs []Message
	fail error
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes later publishes return err until called with nil.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	p.fail = err
	p.mu.Unlock()
}

// Publish implements pipeline.Publisher.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	var attrs map[string]string
	if a, ok := payload.(interface{ Attributes() map[string]string }); ok {
		attrs = a.Attributes()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return "", p.fail
	}
	id := strconv.Itoa(len(p.msgs) + 1)
	p.msgs = append(p.msgs, Message{ID: id, Topic: topic, Payload: payload, Data: data, Attributes: attrs})
	return id, nil
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.msgs...)
}
