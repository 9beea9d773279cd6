package docstore

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Backend. Subscribers are called synchronously from
// Put.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Document
	subs *fanout
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]Document),
		subs: newFanout(),
		now:  time.Now,
	}
}

func (m *Memory) Put(_ context.Context, doc Document) error {
	m.mu.Lock()
	now := m.now()
	if prev, ok := m.docs[doc.ID]; ok {
		doc.CreatedAt = prev.CreatedAt
	} else if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	m.docs[doc.ID] = doc
	m.mu.Unlock()

	m.subs.publish(doc)
	return nil
}

func (m *Memory) Get(_ context.Context, code string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[code]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (m *Memory) Exists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[code]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[code]; !ok {
		return ErrNotFound
	}
	delete(m.docs, code)
	return nil
}

func (m *Memory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for code, doc := range m.docs {
		if doc.UpdatedAt.Before(cutoff) {
			delete(m.docs, code)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Subscribe(ctx context.Context, code string, fn func(Document)) (func(), error) {
	sub, cancel := m.subs.add(code, fn)
	if doc, err := m.Get(ctx, code); err == nil {
		sub.deliver(doc)
	}
	return cancel, nil
}
