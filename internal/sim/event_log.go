package sim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event categories.
const (
	CatPath   = "path"
	CatMove   = "move"
	CatGrid   = "grid"
	CatStruct = "struct"
	CatOrder  = "order"
)

// Event is one recorded simulation event.
type Event struct {
	Tick     int
	Entity   string  // label e.g. "scv1", "cc", or "--" for world events
	Category string  // path, move, grid, struct, order
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] scv1     path     no_path          (3,4) -> (60,60)
func (e Event) String() string {
	return fmt.Sprintf("[T=%03d] %-8s %-8s %-16s %s",
		e.Tick, e.Entity, e.Category, e.Key, e.Value)
}

// EventLog collects structured events during a simulation. It is unbounded
// and machine-readable; each event is also emitted to the attached slog
// logger at debug level.
type EventLog struct {
	entries []Event
	verbose bool
	logger  *slog.Logger
}

// NewEventLog creates an EventLog. If verbose is true, per-tick position
// entries are also recorded.
func NewEventLog(verbose bool, logger *slog.Logger) *EventLog {
	return &EventLog{verbose: verbose, logger: logger}
}

// Add records a new entry.
func (el *EventLog) Add(tick int, entity, category, key, value string, numVal float64) {
	el.entries = append(el.entries, Event{
		Tick:     tick,
		Entity:   entity,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
	if el.logger != nil && el.logger.Enabled(context.Background(), slog.LevelDebug) {
		el.logger.Debug(category+"."+key,
			slog.Int("tick", tick),
			slog.String("entity", entity),
			slog.String("value", value),
		)
	}
}

// AddVerbose records an entry only when verbose mode is on.
func (el *EventLog) AddVerbose(tick int, entity, category, key, value string, numVal float64) {
	if !el.verbose {
		return
	}
	el.Add(tick, entity, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (el *EventLog) Entries() []Event {
	return el.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (el *EventLog) Filter(category, key string) []Event {
	var out []Event
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterEntity returns entries for a specific entity label.
func (el *EventLog) FilterEntity(label string) []Event {
	var out []Event
	for _, e := range el.entries {
		if e.Entity == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (el *EventLog) FilterTickRange(fromTick, toTick int) []Event {
	var out []Event
	for _, e := range el.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (el *EventLog) CountCategory(category, key string) int {
	return len(el.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (el *EventLog) LastOf(category, key string) (Event, bool) {
	entries := el.Filter(category, key)
	if len(entries) == 0 {
		return Event{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (el *EventLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (el *EventLog) Format() string {
	var sb strings.Builder
	for _, e := range el.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (el *EventLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range el.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Tail returns the last n entries.
func (el *EventLog) Tail(n int) []Event {
	if n >= len(el.entries) {
		return el.entries
	}
	return el.entries[len(el.entries)-n:]
}
