package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// StageKey is rendered as a tag in front of the message instead of as an attribute
const StageKey = "stage"

// levelTags are fixed width so messages line up
var levelTags = map[slog.Level]struct {
	text  string
	color *color.Color
}{
	LevelTrace:      {"[TRACE]", color.New(color.FgHiBlack)},
	slog.LevelDebug: {"[DEBUG]", color.New(color.FgBlue)},
	slog.LevelInfo:  {"[INFO] ", color.New(color.FgGreen)},
	slog.LevelWarn:  {"[WARN] ", color.New(color.FgYellow)},
	slog.LevelError: {"[ERROR]", color.New(color.FgRed, color.Bold)},
}

// CompactHandler writes one line per record for console output:
//
//	[LEVEL] HH:MM:SS [stage] message | key=value key=value
type CompactHandler struct {
	level slog.Leveler
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr
	stage string
	group string // key prefix from WithGroup
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	h := &CompactHandler{level: slog.LevelInfo, mu: &sync.Mutex{}, out: w}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	if tag, ok := levelTags[r.Level]; ok {
		sb.WriteString(tag.color.Sprint(tag.text))
	} else {
		sb.WriteString("[" + r.Level.String() + "]")
	}
	sb.WriteByte(' ')
	sb.WriteString(r.Time.Format(time.TimeOnly))
	sb.WriteByte(' ')

	// A stage on the record overrides one bound with WithAttrs
	stage := h.stage
	var attrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == StageKey && h.group == "" {
			stage = a.Value.String()
		} else {
			attrs = append(attrs, a)
		}
		return true
	})
	if stage != "" {
		sb.WriteString("[" + stage + "] ")
	}
	sb.WriteString(r.Message)

	sep := " |"
	for _, a := range append(cloneAttrs(h.attrs), h.prefixed(attrs)...) {
		if a.Equal(slog.Attr{}) {
			continue
		}
		sb.WriteString(sep)
		sb.WriteByte(' ')
		writeAttr(&sb, a)
		sep = ""
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *CompactHandler) prefixed(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	for i := range attrs {
		attrs[i].Key = h.group + "." + attrs[i].Key
	}
	return attrs
}

func writeAttr(sb *strings.Builder, a slog.Attr) {
	v := a.Value.Resolve()

	switch a.Key {
	case requestIDAttr:
		// First 8 chars of a UUID are enough to follow one request
		if s := v.String(); len(s) > 8 {
			sb.WriteString("req=" + s[:8])
			return
		}
	case "durationMs":
		sb.WriteString("duration=" + v.String() + "ms")
		return
	case "error":
		sb.WriteString("error=" + strconv.Quote(v.String()))
		return
	}

	sb.WriteString(a.Key)
	sb.WriteByte('=')

	var buf []byte
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	case slog.KindInt64:
		buf = strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		buf = strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		buf = strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		buf = strconv.AppendBool(buf, v.Bool())
	case slog.KindTime:
		buf = v.Time().AppendFormat(buf, time.RFC3339)
	default:
		// Durations, groups and arbitrary values use their String form
		buf = append(buf, v.String()...)
	}
	sb.Write(buf)
}

func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"=")
}

func cloneAttrs(attrs []slog.Attr) []slog.Attr {
	return append([]slog.Attr(nil), attrs...)
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = cloneAttrs(h.attrs)
	for _, a := range attrs {
		if a.Key == StageKey && h.group == "" {
			clone.stage = a.Value.String()
			continue
		}
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	clone.group = name
	return &clone
}
