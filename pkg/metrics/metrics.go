// Package metrics is a small in-process metrics registry that renders
// the Prometheus text exposition format. Counters, gauges, and
// histograms are grouped into families; labelled series are addressed
// by baking the label pairs into the series name via WithLabels.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets are the histogram buckets used when a caller passes
// nil, in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Counter only goes up.
type Counter struct{ val atomic.Int64 }

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

// Gauge goes up and down.
type Gauge struct{ val atomic.Int64 }

func (g *Gauge) Set(n int64)  { g.val.Store(n) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

// Histogram tracks a value distribution over fixed buckets. Bucket
// counts are kept cumulative, matching the exposition format directly.
type Histogram struct {
	mu    sync.Mutex
	upper []float64
	cumul []uint64
	sum   float64
	count uint64
}

func newHistogram(buckets []float64) *Histogram {
	upper := make([]float64, len(buckets))
	copy(upper, buckets)
	sort.Float64s(upper)
	return &Histogram{upper: upper, cumul: make([]uint64, len(upper))}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.sum += v
	h.count++
	for i, b := range h.upper {
		if v <= b {
			h.cumul[i]++
		}
	}
	h.mu.Unlock()
}

// Since observes the duration elapsed since t, in seconds.
func (h *Histogram) Since(t time.Time) {
	h.Observe(time.Since(t).Seconds())
}

func (h *Histogram) snapshot() (upper []float64, cumul []uint64, sum float64, count uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cumul = make([]uint64, len(h.cumul))
	copy(cumul, h.cumul)
	return h.upper, cumul, h.sum, h.count
}

// family groups every series sharing a base name, so labelled variants
// render under one HELP/TYPE header.
type family struct {
	typ    string
	help   string
	series []string // full series names, in registration order
}

// Registry holds named metrics. All methods are safe for concurrent
// use; fetching an existing name returns the same instance.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	families   map[string]*family
	order      []string // family base names, in registration order
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		families:   make(map[string]*family),
	}
}

func (r *Registry) register(name, typ, help string) {
	base := baseName(name)
	fam, ok := r.families[base]
	if !ok {
		fam = &family{typ: typ}
		r.families[base] = fam
		r.order = append(r.order, base)
	}
	if help != "" && fam.help == "" {
		fam.help = help
	}
	fam.series = append(fam.series, name)
}

// Counter returns the counter for name, creating it on first use.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{}
	r.counters[name] = c
	r.register(name, "counter", help)
	return c
}

// Gauge returns the gauge for name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	r.gauges[name] = g
	r.register(name, "gauge", help)
	return g
}

// Histogram returns the histogram for name, creating it on first use.
// Nil buckets fall back to DefaultBuckets.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	h := newHistogram(buckets)
	r.histograms[name] = h
	r.register(name, "histogram", help)
	return h
}

// WithLabels bakes label pairs into a series name:
// WithLabels("foo", "k", "v") yields `foo{k="v"}`. An odd number of
// pairs returns the name unchanged.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i := 0; i < len(kvs); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", kvs[i], kvs[i+1])
	}
	b.WriteByte('}')
	return b.String()
}

func baseName(series string) string {
	if i := strings.IndexByte(series, '{'); i >= 0 {
		return series[:i]
	}
	return series
}

// labelBody returns the inner label text of a series name, without
// braces, or "" for an unlabelled series.
func labelBody(series string) string {
	i := strings.IndexByte(series, '{')
	if i < 0 {
		return ""
	}
	return series[i+1 : len(series)-1]
}

// Render writes every family in registration order, series sorted
// within each family, in the Prometheus text format.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, base := range r.order {
		fam := r.families[base]
		if fam.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, fam.help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, fam.typ)

		series := make([]string, len(fam.series))
		copy(series, fam.series)
		sort.Strings(series)

		for _, name := range series {
			switch fam.typ {
			case "counter":
				fmt.Fprintf(&b, "%s %d\n", name, r.counters[name].Value())
			case "gauge":
				fmt.Fprintf(&b, "%s %d\n", name, r.gauges[name].Value())
			case "histogram":
				r.renderHistogram(&b, base, name)
			}
		}
	}
	return b.String()
}

func (r *Registry) renderHistogram(b *strings.Builder, base, name string) {
	upper, cumul, sum, count := r.histograms[name].snapshot()
	labels := labelBody(name)
	for i, u := range upper {
		fmt.Fprintf(b, "%s_bucket{%s} %d\n", base, joinLabels(labels, fmt.Sprintf(`le="%g"`, u)), cumul[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s} %d\n", base, joinLabels(labels, `le="+Inf"`), count)
	fmt.Fprintf(b, "%s_sum%s %g\n", base, wrapLabels(labels), sum)
	fmt.Fprintf(b, "%s_count%s %d\n", base, wrapLabels(labels), count)
}

func joinLabels(body, le string) string {
	if body == "" {
		return le
	}
	return body + "," + le
}

func wrapLabels(body string) string {
	if body == "" {
		return ""
	}
	return "{" + body + "}"
}

// Handler serves the registry at a /metrics-style endpoint.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(r.Render()))
	})
}
