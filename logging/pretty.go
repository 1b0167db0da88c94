package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PrettyJSONHandler writes each record as an indented JSON object. It is
// meant for reading game logs by eye, not for throughput.
type PrettyJSONHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool

	attrs  []scopedAttr
	groups []string
}

// scopedAttr remembers how many groups were open when the attr was added.
type scopedAttr struct {
	depth int
	attr  slog.Attr
}

func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyJSONHandler {
	h := &PrettyJSONHandler{mu: &sync.Mutex{}, w: w, level: slog.LevelInfo}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.addSource = opts.AddSource
	}
	return h
}

func (h *PrettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	out := map[string]any{
		slog.LevelKey:   r.Level.String(),
		slog.MessageKey: r.Message,
	}
	if !r.Time.IsZero() {
		out[slog.TimeKey] = r.Time.Format(time.RFC3339Nano)
	}
	if h.addSource {
		if src := shortSource(r.PC); src != "" {
			out[slog.SourceKey] = src
		}
	}

	// Group objects are created on first use so empty groups never appear.
	scopes := []map[string]any{out}
	scope := func(depth int) map[string]any {
		for len(scopes) <= depth {
			parent := scopes[len(scopes)-1]
			name := h.groups[len(scopes)-1]
			next, ok := parent[name].(map[string]any)
			if !ok {
				next = map[string]any{}
				parent[name] = next
			}
			scopes = append(scopes, next)
		}
		return scopes[depth]
	}
	for _, sa := range h.attrs {
		if !isEmptyAttr(sa.attr) {
			putAttr(scope(sa.depth), sa.attr)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if !isEmptyAttr(a) {
			putAttr(scope(len(h.groups)), a)
		}
		return true
	})

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		b = []byte(`{"level":` + strconv.Quote(r.Level.String()) + `,"msg":` + strconv.Quote(r.Message) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = make([]scopedAttr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, scopedAttr{depth: len(h.groups), attr: a})
	}
	return &c
}

func (h *PrettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}

func isEmptyAttr(a slog.Attr) bool {
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return a.Key == ""
	}
	for _, ga := range v.Group() {
		if !isEmptyAttr(ga) {
			return false
		}
	}
	return true
}

func putAttr(dst map[string]any, a slog.Attr) {
	if isEmptyAttr(a) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		target := dst
		if a.Key != "" {
			existing, ok := dst[a.Key].(map[string]any)
			if !ok {
				existing = map[string]any{}
				dst[a.Key] = existing
			}
			target = existing
		}
		for _, ga := range v.Group() {
			putAttr(target, ga)
		}
		return
	}
	dst[a.Key] = plainValue(v)
}

func plainValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if s, ok := v.Any().(interface{ String() string }); ok {
			return s.String()
		}
		return v.Any()
	}
	return v.String()
}

func shortSource(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
