package upstream

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Names of the upstream services whose calls are counted.
const (
	ServiceEmail     = "email"
	ServiceLLM       = "llm"
	ServiceFirecrawl = "firecrawl"
	ServiceHMRC      = "hmrc"
)

type counters struct {
	calls   int64
	errors  int64
	latency int64 // total nanoseconds
}

var (
	mu       sync.RWMutex
	services = map[string]*counters{}
)

func get(service string) *counters {
	mu.RLock()
	c, ok := services[service]
	mu.RUnlock()
	if ok {
		return c
	}

	mu.Lock()
	defer mu.Unlock()
	if c, ok = services[service]; !ok {
		c = &counters{}
		services[service] = c
	}
	return c
}

// Record records one call to an upstream service.
func Record(service string, duration time.Duration, err error) {
	c := get(service)
	atomic.AddInt64(&c.calls, 1)
	atomic.AddInt64(&c.latency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
	}
}

// Track is used as: defer upstream.Track(upstream.ServiceLLM, time.Now(), &err)
func Track(service string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	Record(service, time.Since(start), err)
}

type Snapshot struct {
	Service          string  `json:"service"`
	Calls            int64   `json:"calls"`
	Errors           int64   `json:"errors"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
}

// Snapshots returns the current counters sorted by service name.
func Snapshots() []Snapshot {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Snapshot, 0, len(services))
	for name, c := range services {
		s := Snapshot{
			Service: name,
			Calls:   atomic.LoadInt64(&c.calls),
			Errors:  atomic.LoadInt64(&c.errors),
		}
		if s.Calls > 0 {
			s.AverageLatencyMs = float64(atomic.LoadInt64(&c.latency)) / float64(s.Calls) / 1e6
			s.ErrorRate = float64(s.Errors) / float64(s.Calls) * 100
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Reset clears all counters (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	services = map[string]*counters{}
}
