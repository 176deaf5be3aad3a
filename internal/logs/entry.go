package logs

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"avatarstudio/internal/logging"
)

// Entry is one decoded log record.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	Fields    map[string]any
}

// ParseEntry decodes a JSON log line. Non-JSON lines become an Entry with
// only Message set.
func ParseEntry(line string) Entry {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{Message: line}
	}
	e := Entry{Fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		switch key {
		case "ts":
			if s, ok := value.(string); ok {
				e.Time, _ = time.Parse(time.RFC3339, s)
			}
		case "level":
			e.Level, _ = value.(string)
		case "msg":
			e.Message, _ = value.(string)
		case logging.FieldComponent:
			e.Component, _ = value.(string)
		default:
			e.Fields[key] = value
		}
	}
	return e
}

// JobID returns the job id attached to the entry, if any.
func (e Entry) JobID() string {
	id, _ := e.Fields[logging.FieldJobID].(string)
	return id
}

// Format renders the entry on a single line with fields in key order.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format(time.DateTime))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level))
	}
	if e.Component != "" {
		fmt.Fprintf(&b, "[%s] ", e.Component)
	}
	b.WriteString(e.Message)
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects entries for display. Zero values match everything.
type Filter struct {
	JobID    string
	MinLevel string
}

// Match reports whether the entry passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.JobID != "" && e.JobID() != f.JobID {
		return false
	}
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if !ok {
			return true
		}
		got, ok := levelRank[strings.ToLower(e.Level)]
		if ok && got < want {
			return false
		}
	}
	return true
}
