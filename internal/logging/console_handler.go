package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one header line per record, e.g.
//
//	2026-01-02 15:04:05 INFO [transition] Idea #7 (Script) – stage advanced
//	    - Event: stage_transition
//
// followed by the remaining attributes, one per line.
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []groupedAttr
	groups    []string
	addSource bool
}

// groupedAttr remembers the groups that were open when WithAttrs was called.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := newFieldSet(record.NumAttrs() + len(h.attrs))
	for _, ga := range h.attrs {
		fields.add(ga.groups, ga.attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields.add(h.groups, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component := fields.take(FieldComponent); component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if subject := ideaSubject(fields.take(FieldIdeaID), fields.take(FieldStage)); subject != "" {
		buf.WriteString(" " + subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	if src := record.Source(); h.addSource && src != nil && record.Level >= slog.LevelWarn {
		buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
	}
	buf.WriteByte('\n')
	for _, f := range fields.list {
		if f.taken {
			continue
		}
		buf.WriteString("    - " + fieldLabel(f.key) + ": " + quoteIfNeeded(valueText(f.value)) + "\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]groupedAttr(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, groupedAttr{groups: h.groups, attr: attr})
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

type field struct {
	key   string
	value slog.Value
	taken bool
}

// fieldSet keeps attributes in first-seen order. A repeated key overwrites the
// earlier value in place.
type fieldSet struct {
	list  []field
	index map[string]int
}

func newFieldSet(capacity int) *fieldSet {
	return &fieldSet{list: make([]field, 0, capacity), index: make(map[string]int, capacity)}
}

func (s *fieldSet) add(prefix []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			s.add(next, member)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	key := strings.Join(append(append([]string(nil), prefix...), attr.Key), ".")
	if pos, ok := s.index[key]; ok {
		s.list[pos].value = attr.Value
		return
	}
	s.index[key] = len(s.list)
	s.list = append(s.list, field{key: key, value: attr.Value})
}

// take returns the value for key and hides it from the field list.
func (s *fieldSet) take(key string) string {
	pos, ok := s.index[key]
	if !ok {
		return ""
	}
	s.list[pos].taken = true
	return strings.TrimSpace(valueText(s.list[pos].value))
}

func ideaSubject(ideaID, stage string) string {
	switch {
	case ideaID != "" && stage != "":
		return "Idea #" + ideaID + " (" + stage + ")"
	case ideaID != "":
		return "Idea #" + ideaID
	default:
		return stage
	}
}

var fieldLabels = map[string]string{
	FieldEventType:     "Event",
	FieldErrorCode:     "Error Code",
	FieldErrorHint:     "Hint",
	FieldCorrelationID: "Request",
}

func fieldLabel(key string) string {
	if label, ok := fieldLabels[key]; ok {
		return label
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}

func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
