package notify

import (
	"context"
	"sync"
)

// Recorder keeps entries in memory. It is a Sink as well as a Reporter and Notifier.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewBoundedRecorder keeps only the newest max entries.
func NewBoundedRecorder(max int) *Recorder {
	return &Recorder{max: max}
}

func (r *Recorder) Write(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if r.max > 0 && len(r.entries) > r.max {
		r.entries = append([]Entry(nil), r.entries[len(r.entries)-r.max:]...)
	}
	return nil
}

func (r *Recorder) Report(event string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	_ = r.Write(context.Background(), NewEntry(KindDiagnostic, event, msg))
}

func (r *Recorder) Notify(message string) {
	_ = r.Write(context.Background(), NewEntry(KindNotification, "", message))
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the text of recorded notifications, oldest first.
func (r *Recorder) Messages() []string {
	return r.filter(KindNotification, func(e Entry) string { return e.Message })
}

// Events returns the event names of recorded diagnostics, oldest first.
func (r *Recorder) Events() []string {
	return r.filter(KindDiagnostic, func(e Entry) string { return e.Event })
}

func (r *Recorder) filter(kind Kind, pick func(Entry) string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, pick(e))
		}
	}
	return out
}

// Drain returns and forgets everything recorded so far.
func (r *Recorder) Drain() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}
