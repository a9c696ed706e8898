/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"strings"
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-docgate/log"
)

// RecordedEntry is a single entry kept by Recorder.
type RecordedEntry struct {
	LoggerName string
	Fields     []log.Field
	Level      log.Level
	Time       time.Time
	Text       string
}

// FindField returns the first field with the key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

var recordedLevels = map[logf.Level]log.Level{
	logf.LevelError: log.LevelError,
	logf.LevelWarn:  log.LevelWarn,
	logf.LevelInfo:  log.LevelInfo,
	logf.LevelDebug: log.LevelDebug,
}

// entryStore is shared by a Recorder and all loggers derived from it.
type entryStore struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic
func (s *entryStore) WriteEntry(e logf.Entry) {
	// Fields bound with With go first.
	fields := append(append(make([]log.Field, 0, len(e.DerivedFields)+len(e.Fields)), e.DerivedFields...), e.Fields...)
	entry := RecordedEntry{LoggerName: e.LoggerName, Fields: fields, Level: recordedLevels[e.Level], Time: e.Time, Text: e.Text}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

func (s *entryStore) filter(fn func(entry RecordedEntry) bool) []RecordedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []RecordedEntry
	for _, entry := range s.entries {
		if fn(entry) {
			found = append(found, entry)
		}
	}
	return found
}

// Recorder is a log.FieldLogger that keeps every entry in memory for assertions in tests.
type Recorder struct {
	*log.LogfAdapter
	store *entryStore
}

var _ log.FieldLogger = (*Recorder)(nil)

// NewRecorder creates a Recorder that records entries of all levels.
func NewRecorder() *Recorder {
	store := &entryStore{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, store)}, store}
}

// With returns a derived Recorder sharing the same entries.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.store}
}

// WithLevel returns a derived Recorder sharing the same entries.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.store}
}

// Entries returns a copy of all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	return r.store.filter(func(RecordedEntry) bool { return true })
}

// FindEntry returns the first entry whose text is exactly msg.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	found := r.store.filter(func(entry RecordedEntry) bool { return entry.Text == msg })
	if len(found) == 0 {
		return RecordedEntry{}, false
	}
	return found[0], true
}

// FindEntriesWithPrefix returns entries whose text starts with prefix
// (e.g. "response completed in" for messages with durations).
func (r *Recorder) FindEntriesWithPrefix(prefix string) []RecordedEntry {
	return r.store.filter(func(entry RecordedEntry) bool { return strings.HasPrefix(entry.Text, prefix) })
}

// FindAllEntriesByFilter returns entries accepted by filter.
func (r *Recorder) FindAllEntriesByFilter(filter func(entry RecordedEntry) bool) []RecordedEntry {
	return r.store.filter(filter)
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.store.mu.Lock()
	r.store.entries = nil
	r.store.mu.Unlock()
}
