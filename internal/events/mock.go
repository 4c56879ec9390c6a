package events

import (
	"context"
	"sync"
)

// PublishedEvent is one recorded Publish call.
type PublishedEvent struct {
	Subject string
	Payload any
}

// MockPublisher records events in memory for tests.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, subject string, payload any) error

	mu     sync.Mutex
	Events []PublishedEvent
}

func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

func (m *MockPublisher) Publish(ctx context.Context, subject string, payload any) error {
	m.mu.Lock()
	m.Events = append(m.Events, PublishedEvent{Subject: subject, Payload: payload})
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, subject, payload)
	}
	return nil
}

func (m *MockPublisher) Close() {}

// BySubject returns the recorded events with the given subject.
func (m *MockPublisher) BySubject(subject string) []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PublishedEvent
	for _, e := range m.Events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out
}
