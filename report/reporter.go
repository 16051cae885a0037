package report

import (
	"fmt"
)

// Message is a single structured diagnostic emitted by the tracker core.
type Message struct {
	Severity    Severity
	ObjectKind  ObjectKind
	Handle      uint64
	Code        MessageCode
	LayerPrefix string
	Text        string
}

// Sink receives every message that passes the Reporter's severity filter.
// Sinks are torn down in reverse registration order when the owning
// instance is destroyed.
type Sink interface {
	Handle(msg Message)
	Close() error
}

// Reporter fans structured diagnostics out to registered sinks. It performs
// no synchronization of its own: the tracker emits while holding the core
// lock, and registration happens during instance creation.
type Reporter struct {
	activeFlags Severity
	sinks       []Sink
}

func NewReporter(activeFlags Severity) *Reporter {
	return &Reporter{
		activeFlags: activeFlags,
	}
}

// Active reports whether messages of the given severity would be emitted at
// all, allowing callers to bypass expensive message construction.
func (r *Reporter) Active(severity Severity) bool {
	return r.activeFlags&severity != 0
}

func (r *Reporter) RegisterSink(sink Sink) {
	r.sinks = append(r.sinks, sink)
}

// Teardown closes all sinks in reverse registration order and drops them.
func (r *Reporter) Teardown() error {
	var firstErr error
	for i := len(r.sinks) - 1; i >= 0; i-- {
		err := r.sinks[i].Close()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.sinks = nil
	return firstErr
}

// Log formats and emits one diagnostic. It returns true when the severity
// passes the active filter, whether or not any sink is registered; callers
// accumulate the result into the skip flag for the intercepted call.
func (r *Reporter) Log(severity Severity, kind ObjectKind, handle uint64, code MessageCode, layerPrefix string, format string, args ...any) bool {
	if !r.Active(severity) {
		return false
	}

	msg := Message{
		Severity:    severity,
		ObjectKind:  kind,
		Handle:      handle,
		Code:        code,
		LayerPrefix: layerPrefix,
		Text:        fmt.Sprintf(format, args...),
	}
	for _, sink := range r.sinks {
		sink.Handle(msg)
	}
	return true
}
