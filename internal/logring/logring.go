// Package logring keeps a bounded ring of recent log records in memory so
// /debug/logs can show the last moments of a running server without log
// files or external collectors.
//
// The ring is a slog.Handler wrapped around the real one: every record goes
// to the underlying handler unchanged AND into the ring. It is constructed
// in main and injected — nothing here is a process global, and a server
// built without one behaves identically minus the debug endpoint.
package logring

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Entry is one captured log record, flattened for JSON.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// Ring is a fixed-capacity buffer of recent log entries. It implements
// slog.Handler; Recent() returns the captured window oldest-first.
type Ring struct {
	inner slog.Handler

	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

var _ slog.Handler = (*Ring)(nil)

// New wraps inner with a ring of the given capacity.
func New(inner slog.Handler, capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		inner:   inner,
		entries: make([]Entry, capacity),
	}
}

func (r *Ring) Enabled(ctx context.Context, level slog.Level) bool {
	return r.inner.Enabled(ctx, level)
}

func (r *Ring) Handle(ctx context.Context, record slog.Record) error {
	r.capture(record)
	return r.inner.Handle(ctx, record)
}

// WithAttrs and WithGroup derive handlers that still feed THIS ring, so
// records logged through child loggers stay visible in /debug/logs.
func (r *Ring) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &child{ring: r, inner: r.inner.WithAttrs(attrs)}
}

func (r *Ring) WithGroup(name string) slog.Handler {
	return &child{ring: r, inner: r.inner.WithGroup(name)}
}

// Recent returns the captured entries, oldest first.
func (r *Ring) Recent() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

func (r *Ring) capture(record slog.Record) {
	entry := Entry{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
	}
	if record.NumAttrs() > 0 {
		entry.Attrs = make(map[string]string, record.NumAttrs())
		record.Attrs(func(a slog.Attr) bool {
			entry.Attrs[a.Key] = a.Value.String()
			return true
		})
	}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// child is a derived handler (WithAttrs/WithGroup) sharing the parent ring.
type child struct {
	ring  *Ring
	inner slog.Handler
}

func (c *child) Enabled(ctx context.Context, level slog.Level) bool {
	return c.inner.Enabled(ctx, level)
}

func (c *child) Handle(ctx context.Context, record slog.Record) error {
	c.ring.capture(record)
	return c.inner.Handle(ctx, record)
}

func (c *child) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &child{ring: c.ring, inner: c.inner.WithAttrs(attrs)}
}

func (c *child) WithGroup(name string) slog.Handler {
	return &child{ring: c.ring, inner: c.inner.WithGroup(name)}
}
