package tool

import (
	"context"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
)

// SearchQuery describes a hybrid (semantic + keyword) lookup against the
// contract search index, always scoped to a client.
type SearchQuery struct {
	Query       string `json:"query"`
	ClientID    string `json:"client_id"`
	ContractID  string `json:"contract_id,omitempty"`
	SectionType string `json:"section_type,omitempty"`
	Top         int    `json:"top"`
}

// SearchService is the external search-index collaborator. Implementations
// run the hybrid search and return scored contract excerpts.
type SearchService interface {
	Search(ctx context.Context, q SearchQuery) ([]core.Source, error)
}

// SearchOptions configures the search tool.
type SearchOptions struct {
	// TopK caps the number of excerpts returned per query.
	TopK int

	// Logger receives tool call diagnostics.
	Logger logging.Logger
}

// Search wraps the search-index collaborator behind the retrieval agent's
// only capability: find contract excerpts relevant to a question.
type Search struct {
	svc  SearchService
	opts SearchOptions
}

// NewSearch creates a search tool over the given collaborator.
func NewSearch(svc SearchService, optFns ...func(o *SearchOptions)) *Search {
	opts := SearchOptions{
		TopK:   5,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Search{svc: svc, opts: opts}
}

// Name returns the tool identifier used in logs and error codes.
func (s *Search) Name() string { return "search_hybrid" }

// Find runs a hybrid search for the question, scoped to the client (and
// contract when known). Results are deduplicated and capped to TopK by
// relevance.
func (s *Search) Find(ctx context.Context, question, clientID, contractID string) ([]core.Source, error) {
	q := SearchQuery{
		Query:      question,
		ClientID:   clientID,
		ContractID: contractID,
		Top:        s.opts.TopK,
	}

	sources, err := s.svc.Search(ctx, q)
	if err != nil {
		s.opts.Logger.Warn("search failed", "client_id", clientID, "error", err)
		return nil, wrapErr(s.Name(), err)
	}

	s.opts.Logger.Debug("search completed", "client_id", clientID, "results", len(sources))

	return core.TopSources(sources, s.opts.TopK), nil
}
