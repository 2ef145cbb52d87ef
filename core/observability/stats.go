// Package observability keeps lock-free counters describing the server's
// connection and request lifecycle.
package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/searchktools/diary-server/core/pools"
)

// Stats is safe for concurrent use by every connection goroutine.
type Stats struct {
	started time.Time

	accepted      atomic.Uint64
	active        atomic.Int64
	completed     atomic.Uint64
	framingFaults atomic.Uint64
	handlerFaults atomic.Uint64
	routeMisses   atomic.Uint64
	statusClasses [5]atomic.Uint64 // 1xx..5xx

	routes sync.Map // route -> *RouteMetrics
}

// RouteMetrics stores per-route counters
type RouteMetrics struct {
	Count         atomic.Uint64
	Errors        atomic.Uint64
	TotalDuration atomic.Uint64
	MinDuration   atomic.Uint64
	MaxDuration   atomic.Uint64
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// ConnAccepted counts a newly accepted connection.
func (s *Stats) ConnAccepted() {
	s.accepted.Add(1)
	s.active.Add(1)
}

// ConnClosed counts a connection reaching its terminal state.
func (s *Stats) ConnClosed() {
	s.active.Add(-1)
	s.completed.Add(1)
}

// FramingFault counts a request abandoned before it was complete.
func (s *Stats) FramingFault() { s.framingFaults.Add(1) }

// HandlerFault counts a handler error or panic.
func (s *Stats) HandlerFault() { s.handlerFaults.Add(1) }

// RouteMiss counts a request no route matched.
func (s *Stats) RouteMiss() { s.routeMisses.Add(1) }

// RecordResponse records one response produced for route.
func (s *Stats) RecordResponse(route string, status int, d time.Duration) {
	if class := status/100 - 1; class >= 0 && class < len(s.statusClasses) {
		s.statusClasses[class].Add(1)
	}
	if route == "" {
		return
	}

	val, _ := s.routes.LoadOrStore(route, &RouteMetrics{})
	m := val.(*RouteMetrics)

	m.Count.Add(1)
	if status >= 500 {
		m.Errors.Add(1)
	}
	ns := uint64(d.Nanoseconds())
	m.TotalDuration.Add(ns)
	updateMinMax(m, ns)
}

func updateMinMax(m *RouteMetrics, d uint64) {
	for {
		min := m.MinDuration.Load()
		if min != 0 && d >= min {
			break
		}
		if m.MinDuration.CompareAndSwap(min, d) {
			break
		}
	}
	for {
		max := m.MaxDuration.Load()
		if d <= max {
			break
		}
		if m.MaxDuration.CompareAndSwap(max, d) {
			break
		}
	}
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Uptime        time.Duration   `json:"uptime_ns"`
	Accepted      uint64          `json:"accepted"`
	Active        int64           `json:"active"`
	Completed     uint64          `json:"completed"`
	FramingFaults uint64          `json:"framing_faults"`
	HandlerFaults uint64          `json:"handler_faults"`
	RouteMisses   uint64          `json:"route_misses"`
	StatusClasses [5]uint64       `json:"status_classes"`
	Routes        []RouteSnapshot `json:"routes"`

	Buffers pools.BytePoolStats `json:"buffers"`
}

// RouteSnapshot is a copy of one route's counters.
type RouteSnapshot struct {
	Route  string        `json:"route"`
	Count  uint64        `json:"count"`
	Errors uint64        `json:"errors"`
	Avg    time.Duration `json:"avg_ns"`
	Min    time.Duration `json:"min_ns"`
	Max    time.Duration `json:"max_ns"`
}

// Snapshot copies the current counters. Routes are sorted by name.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Uptime:        time.Since(s.started),
		Accepted:      s.accepted.Load(),
		Active:        s.active.Load(),
		Completed:     s.completed.Load(),
		FramingFaults: s.framingFaults.Load(),
		HandlerFaults: s.handlerFaults.Load(),
		RouteMisses:   s.routeMisses.Load(),
		Buffers:       pools.GlobalStats(),
	}
	for i := range s.statusClasses {
		snap.StatusClasses[i] = s.statusClasses[i].Load()
	}

	s.routes.Range(func(key, value any) bool {
		m := value.(*RouteMetrics)
		rs := RouteSnapshot{
			Route:  key.(string),
			Count:  m.Count.Load(),
			Errors: m.Errors.Load(),
			Min:    time.Duration(m.MinDuration.Load()),
			Max:    time.Duration(m.MaxDuration.Load()),
		}
		if rs.Count > 0 {
			rs.Avg = time.Duration(m.TotalDuration.Load() / rs.Count)
		}
		snap.Routes = append(snap.Routes, rs)
		return true
	})
	sort.Slice(snap.Routes, func(i, j int) bool { return snap.Routes[i].Route < snap.Routes[j].Route })

	return snap
}

// Proto renders the snapshot as a structpb.Struct for protobuf clients.
func (snap Snapshot) Proto() (*structpb.Struct, error) {
	classes := make([]any, len(snap.StatusClasses))
	for i, n := range snap.StatusClasses {
		classes[i] = n
	}
	routes := make([]any, 0, len(snap.Routes))
	for _, r := range snap.Routes {
		routes = append(routes, map[string]any{
			"route":  r.Route,
			"count":  r.Count,
			"errors": r.Errors,
			"avg_ns": int64(r.Avg),
			"min_ns": int64(r.Min),
			"max_ns": int64(r.Max),
		})
	}
	return structpb.NewStruct(map[string]any{
		"uptime_ns":      int64(snap.Uptime),
		"accepted":       snap.Accepted,
		"active":         snap.Active,
		"completed":      snap.Completed,
		"framing_faults": snap.FramingFaults,
		"handler_faults": snap.HandlerFaults,
		"route_misses":   snap.RouteMisses,
		"status_classes": classes,
		"routes":         routes,
		"buffers": map[string]any{
			"gets":   snap.Buffers.Gets,
			"misses": snap.Buffers.Misses,
			"puts":   snap.Buffers.Puts,
		},
	})
}
