package search

import "github.com/poiesic/retriever/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(results []*core.SearchResult)
	AfterLexicalSearch(results []*core.SearchResult)
	AfterFusion(results []*core.SearchResult)
	AfterBalancing(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) AfterLexicalSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterFusion(_ []*core.SearchResult)        {}
func (n *noopMonitor) AfterBalancing(_ []*core.SearchResult)     {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)             {}
