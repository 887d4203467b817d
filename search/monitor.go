package search

import (
	"github.com/poiesic/logilink/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, matchCount int, threshold float64)
	AfterEmbedding(dimensions int)
	AfterMatch(hits []core.SearchHit)
	// Degraded is called when a failure is absorbed into an empty result.
	Degraded(err error)
	Finish(hits []core.SearchHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int, _ float64) {}
func (n *noopMonitor) AfterEmbedding(_ int)             {}
func (n *noopMonitor) AfterMatch(_ []core.SearchHit)    {}
func (n *noopMonitor) Degraded(_ error)                 {}
func (n *noopMonitor) Finish(_ []core.SearchHit)        {}
