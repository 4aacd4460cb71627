package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
	"github.com/hupe1980/costpilot/tool"
)

// CostInsights analyses the client's claim records. It gathers the
// aggregation reports concurrently, compares the two most recent months of
// the trend, hands the figures to the model as a structured digest and
// produces a narrative of findings. The narrative is grounded exclusively on
// the digest; the model never queries data itself.
type CostInsights struct {
	BaseAgent
	cost *tool.Cost
}

var _ core.Agent = (*CostInsights)(nil)

// NewCostInsights creates the cost analysis agent over the cost tool.
func NewCostInsights(m model.Model, cost *tool.Cost, optFns ...func(o *Options)) *CostInsights {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &CostInsights{
		BaseAgent: newBaseAgent(core.AgentCostInsights, m, costInsightsPrompt, opts),
		cost:      cost,
	}
}

// costDigest is the structured snapshot handed to the model. Comparison is
// absent when the trend covers fewer than two months.
type costDigest struct {
	Summary     *tool.CostSummary       `json:"resumo"`
	Categories  *tool.CategoryReport    `json:"custos_por_categoria"`
	Trend       *tool.TrendReport       `json:"evolucao_mensal"`
	Procedures  *tool.ProcedureReport   `json:"principais_procedimentos"`
	ClaimsRatio *tool.ClaimsRatioReport `json:"sinistralidade"`
	Comparison  *tool.PeriodComparison  `json:"comparacao_mensal,omitempty"`
}

// Run gathers the aggregation reports and narrates the findings.
func (a *CostInsights) Run(ctx context.Context, sc *core.SharedContext) core.AgentResult {
	start := time.Now()

	f := tool.CostFilter{ClientID: sc.ClientID, ContractID: sc.ContractID}

	var digest costDigest

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { digest.Summary, err = a.cost.Summary(gctx, f); return })
	g.Go(func() (err error) { digest.Categories, err = a.cost.ByCategory(gctx, f); return })
	g.Go(func() (err error) { digest.Trend, err = a.cost.Trend(gctx, f); return })
	g.Go(func() (err error) { digest.Procedures, err = a.cost.TopProcedures(gctx, f); return })
	g.Go(func() (err error) { digest.ClaimsRatio, err = a.cost.ClaimsRatio(gctx, f); return })
	if err := g.Wait(); err != nil {
		return a.failErr(start, err)
	}

	// Contrast the two most recent months of the trend.
	if n := len(digest.Trend.Periods); n >= 2 {
		prev, okPrev := monthRange(digest.Trend.Periods[n-2].Month)
		last, okLast := monthRange(digest.Trend.Periods[n-1].Month)
		if okPrev && okLast {
			cmp, err := a.cost.ComparePeriods(ctx, f.ClientID, f.ContractID, prev, last)
			if err != nil {
				return a.failErr(start, err)
			}
			digest.Comparison = cmp
		}
	}

	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return a.fail(start, core.ErrCodeToolUnavailable, fmt.Sprintf("encode cost digest: %v", err))
	}

	prompt := fmt.Sprintf("Pergunta do gestor: %s\n\nDados agregados de custos do cliente (JSON):\n%s\n\nAnalise os dados acima e responda à pergunta com números e tendências.",
		sc.Question, data)

	out, err := a.generate(ctx, sc, model.UserMessage(prompt))
	if err != nil {
		return a.failErr(start, err)
	}

	return a.succeed(start, out, nil)
}

// monthRange expands a YYYY-MM month into its first/last day date range.
func monthRange(month string) ([2]string, bool) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return [2]string{}, false
	}
	last := first.AddDate(0, 1, -1)
	return [2]string{first.Format("2006-01-02"), last.Format("2006-01-02")}, true
}
