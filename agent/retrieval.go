package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/tool"
)

// Retrieval finds contract excerpts relevant to the question. It is the only
// agent without a reasoning step: it calls the search tool scoped to the
// client/contract, keeps the top-k excerpts and renders them as passages for
// the downstream contract analyst.
type Retrieval struct {
	BaseAgent
	search *tool.Search
}

var _ core.Agent = (*Retrieval)(nil)

// NewRetrieval creates the retrieval agent over the search tool.
func NewRetrieval(search *tool.Search, optFns ...func(o *Options)) *Retrieval {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Retrieval{
		BaseAgent: newBaseAgent(core.AgentRetrieval, nil, "", opts),
		search:    search,
	}
}

// Run executes the search and renders the excerpts with their citations.
func (a *Retrieval) Run(ctx context.Context, sc *core.SharedContext) core.AgentResult {
	start := time.Now()

	sources, err := a.search.Find(ctx, sc.Question, sc.ClientID, sc.ContractID)
	if err != nil {
		return a.failErr(start, err)
	}

	if len(sources) == 0 {
		return a.succeed(start, "Nenhum trecho relevante foi encontrado nos contratos indexados para esta pergunta.", nil)
	}

	var sb strings.Builder
	sb.WriteString("Trechos relevantes encontrados nos contratos:\n")
	for i, s := range sources {
		sb.WriteString(fmt.Sprintf("\n[%d] %s", i+1, s.DocumentName))
		if s.SectionTitle != "" {
			sb.WriteString(" — " + s.SectionTitle)
		}
		if s.PageNumber > 0 {
			sb.WriteString(fmt.Sprintf(" (página %d)", s.PageNumber))
		}
		sb.WriteString("\n" + s.Snippet + "\n")
	}

	return a.succeed(start, sb.String(), sources)
}
