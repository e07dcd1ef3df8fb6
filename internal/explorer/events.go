package explorer

import (
	"path"
	"strings"
	"time"

	"github.com/CageChen/fileexplorer/internal/visitor"
)

// Event types, one per visitor notification.
const (
	EventStart                  = "start"
	EventFinish                 = "finish"
	EventFileFound              = "fileFound"
	EventDirectoryFound         = "directoryFound"
	EventFilteredFileFound      = "filteredFileFound"
	EventFilteredDirectoryFound = "filteredDirectoryFound"
	EventError                  = "error"
)

// Event mirrors a visitor notification for consumers outside the process,
// such as websocket clients.
type Event struct {
	RunID string    `json:"runId"`
	Type  string    `json:"type"`
	Dir   string    `json:"dir"`
	Name  string    `json:"name,omitempty"`
	Path  string    `json:"path,omitempty"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}

// Sink receives events synchronously while a listing is produced.
type Sink func(Event)

// run collects the state of a single Load.
type run struct {
	id    string
	path  string
	now   func() time.Time
	sinks []Sink

	logs     []string
	finished bool
	err      error
	included int
}

// log prepends a timestamped line so the newest message comes first.
func (r *run) log(at time.Time, msg string) {
	line := at.Format("15:04:05") + " - " + msg
	r.logs = append([]string{line}, r.logs...)
}

func (r *run) emit(ev Event) {
	ev.RunID = r.id
	ev.Dir = r.path
	ev.Time = r.now()
	r.log(ev.Time, ev.Message())
	for _, s := range r.sinks {
		s(ev)
	}
}

// Message is the log line text for the event.
func (ev Event) Message() string {
	switch ev.Type {
	case EventStart:
		return "Search started"
	case EventFinish:
		return "Search finished"
	case EventFileFound:
		return "File found: " + ev.Name
	case EventDirectoryFound:
		return "Directory found: " + ev.Name
	case EventFilteredFileFound:
		return "Filtered file found: " + ev.Name
	case EventFilteredDirectoryFound:
		return "Filtered directory found: " + ev.Name
	case EventError:
		return "Error accessing item: " + ev.Error
	default:
		return ev.Type
	}
}

// observe registers the run's observers on v. Per found notification the
// hidden-file and exclude policies run before the item limit, so excluded
// entries never count towards MaxItems.
func (r *run) observe(v *visitor.Visitor, opts Options) {
	v.OnStart(func() { r.emit(Event{Type: EventStart}) })
	v.OnFinish(func() {
		r.finished = true
		r.emit(Event{Type: EventFinish})
	})
	v.OnError(func(err error) {
		r.err = err
		r.emit(Event{Type: EventError, Error: err.Error()})
	})

	found := func(eventType string) func(*visitor.ItemEvent) {
		return func(ev *visitor.ItemEvent) {
			r.emit(Event{Type: eventType, Name: ev.Entry.Name, Path: ev.Entry.Path})
		}
	}
	channels := []struct {
		register func(func(*visitor.ItemEvent))
		typ      string
	}{
		{v.OnFileFound, EventFileFound},
		{v.OnDirectoryFound, EventDirectoryFound},
		{v.OnFilteredFileFound, EventFilteredFileFound},
		{v.OnFilteredDirectoryFound, EventFilteredDirectoryFound},
	}
	for _, ch := range channels {
		ch.register(found(ch.typ))
		if !opts.ShowHidden {
			ch.register(hideDotFiles)
		}
		if len(opts.Exclude) > 0 {
			ch.register(excludeMatching(opts.Exclude))
		}
		if opts.MaxItems > 0 {
			ch.register(r.limit(opts.MaxItems))
		}
	}
}

func hideDotFiles(ev *visitor.ItemEvent) {
	if strings.HasPrefix(ev.Entry.Name, ".") {
		ev.Exclude = true
	}
}

func excludeMatching(patterns []string) func(*visitor.ItemEvent) {
	return func(ev *visitor.ItemEvent) {
		for _, pattern := range patterns {
			if matched, _ := path.Match(pattern, ev.Entry.Name); matched {
				ev.Exclude = true
				return
			}
		}
	}
}

func (r *run) limit(max int) func(*visitor.ItemEvent) {
	return func(ev *visitor.ItemEvent) {
		if ev.Exclude {
			return
		}
		r.included++
		if r.included >= max {
			ev.Cancel = true
		}
	}
}
