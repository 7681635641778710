// Package stats collects runtime counters for the session.
package stats

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector accumulates per-session counters. Safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time

	requests      int
	modelCalls    int
	modelFailures int
	byKind        map[string]int

	topicsLearned   int
	topicsForgotten int
	kbHits          int
}

// NewCollector creates a collector with the clock started.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		byKind:    make(map[string]int),
	}
}

// RecordRequest counts one handled input and its intent kind.
func (c *Collector) RecordRequest(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	c.byKind[kind]++
}

// RecordModelCall counts one model invocation.
func (c *Collector) RecordModelCall(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelCalls++
	if failed {
		c.modelFailures++
	}
}

// RecordLearned counts one topic added to the knowledge base.
func (c *Collector) RecordLearned() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topicsLearned++
}

// RecordForgotten counts one topic removed from the knowledge base.
func (c *Collector) RecordForgotten() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topicsForgotten++
}

// RecordKBHit counts one question answered from the knowledge base.
func (c *Collector) RecordKBHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kbHits++
}

// Summary renders the session counters for display.
func (c *Collector) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session stats (up %s):\n", time.Since(c.startTime).Round(time.Second))
	fmt.Fprintf(&sb, "  requests: %d\n", c.requests)

	kinds := make([]string, 0, len(c.byKind))
	for kind := range c.byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(&sb, "    %s: %d\n", kind, c.byKind[kind])
	}

	fmt.Fprintf(&sb, "  model calls: %d (%d failed)\n", c.modelCalls, c.modelFailures)
	fmt.Fprintf(&sb, "  learned: %d, forgotten: %d, answered from knowledge: %d\n",
		c.topicsLearned, c.topicsForgotten, c.kbHits)
	fmt.Fprintf(&sb, "  memory: %.1f MB, goroutines: %d",
		float64(m.Alloc)/(1024*1024), runtime.NumGoroutine())
	return sb.String()
}
