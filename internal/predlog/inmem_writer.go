package predlog

import "sync"

// InMemWriter is an in-memory implementation of the Writer interface for testing.
type InMemWriter struct {
	mu       sync.RWMutex
	Entries  []Entry
	IsClosed bool
}

// NewInMemWriter creates a new InMemWriter.
func NewInMemWriter() *InMemWriter {
	return &InMemWriter{Entries: make([]Entry, 0)}
}

// Save appends an entry to the in-memory slice.
func (w *InMemWriter) Save(entry Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Entries = append(w.Entries, entry)
}

// Snapshot returns a copy of the recorded entries.
func (w *InMemWriter) Snapshot() []Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Entry(nil), w.Entries...)
}

// Close marks the writer as closed.
func (w *InMemWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.IsClosed = true
}

// NopWriter discards every entry. It is used when no database is configured.
type NopWriter struct{}

// Save does nothing.
func (NopWriter) Save(Entry) {}

// Close does nothing.
func (NopWriter) Close() {}
