package engine

import (
	"fmt"
	"strings"

	"github.com/lmazure/GitLabInjector/pkg/registry"
)

// Report summarizes the results of an injection run. Counters are per entity
// kind; Warnings and Errors hold the literal diagnostic messages in emission
// order.
type Report struct {
	Created  map[registry.Kind]int `json:"created"`
	Failed   map[registry.Kind]int `json:"failed"`
	Skipped  map[registry.Kind]int `json:"skipped"`
	Warnings []string              `json:"warnings,omitempty"`
	Errors   []string              `json:"errors,omitempty"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{
		Created: make(map[registry.Kind]int),
		Failed:  make(map[registry.Kind]int),
		Skipped: make(map[registry.Kind]int),
	}
}

func (r *Report) created(kind registry.Kind) {
	r.Created[kind]++
}

// warn records a recoverable diagnostic (unresolved reference, duplicate id).
func (r *Report) warn(message string) {
	r.Warnings = append(r.Warnings, message)
}

// fail records a creation failure for an entity.
func (r *Report) fail(kind registry.Kind, message string) {
	r.Failed[kind]++
	r.Errors = append(r.Errors, message)
}

// skip records an entity that was not attempted: a duplicate definition or a
// descendant of a failed container.
func (r *Report) skip(kind registry.Kind, message string) {
	r.Skipped[kind]++
	r.Warnings = append(r.Warnings, message)
}

// HasFailures reports whether any creation call failed. Warnings alone do
// not count.
func (r *Report) HasFailures() bool {
	for _, n := range r.Failed {
		if n > 0 {
			return true
		}
	}
	return false
}

func (r *Report) total(counts map[registry.Kind]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func (r *Report) String() string {
	return fmt.Sprintf("Summary: %d created, %d skipped, %d failed, %d warning(s)",
		r.total(r.Created), r.total(r.Skipped), r.total(r.Failed), len(r.Warnings))
}

// Breakdown returns a per-kind multi-line view of the counters, covering
// only kinds that saw activity.
func (r *Report) Breakdown() string {
	var b strings.Builder
	for _, kind := range registry.Kinds {
		created, skipped, failed := r.Created[kind], r.Skipped[kind], r.Failed[kind]
		if created+skipped+failed == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %-10s created=%d skipped=%d failed=%d\n", kind, created, skipped, failed)
	}
	return strings.TrimRight(b.String(), "\n")
}
