package tool

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/costpilot/logging"
)

// PeriodTotals holds the aggregated claim figures for a date range.
type PeriodTotals struct {
	Start        string  `json:"start,omitempty"`
	End          string  `json:"end,omitempty"`
	TotalRecords int     `json:"total_records"`
	TotalCharged float64 `json:"total_charged"`
	TotalPaid    float64 `json:"total_paid"`
}

// CategoryAggregate holds the claim figures for one service category
// (consulta, exame, internação, ...).
type CategoryAggregate struct {
	Category     string  `json:"category"`
	TotalRecords int     `json:"total_records"`
	TotalCharged float64 `json:"total_charged"`
	TotalPaid    float64 `json:"total_paid"`
}

// MonthlyAggregate holds the claim figures for one YYYY-MM month.
type MonthlyAggregate struct {
	Month        string  `json:"month"`
	TotalRecords int     `json:"total_records"`
	TotalCharged float64 `json:"total_charged"`
	TotalPaid    float64 `json:"total_paid"`
}

// ProcedureAggregate holds the claim figures for one medical procedure.
type ProcedureAggregate struct {
	Description  string  `json:"procedure_description"`
	Code         string  `json:"procedure_code"`
	Occurrences  int     `json:"occurrences"`
	TotalCharged float64 `json:"total_charged"`
	TotalPaid    float64 `json:"total_paid"`
	AvgPaid      float64 `json:"avg_paid"`
}

// CostFilter scopes an aggregation query. ClientID is mandatory; an empty
// ContractID, Start or End leaves that dimension unfiltered.
type CostFilter struct {
	ClientID   string `json:"client_id"`
	ContractID string `json:"contract_id,omitempty"`
	Start      string `json:"start,omitempty"` // YYYY-MM-DD
	End        string `json:"end,omitempty"`   // YYYY-MM-DD
}

// CostService is the external claim/cost-record collaborator. It answers
// aggregation queries over a client's claim records; all derived figures
// (percentages, variations, ratios) are computed by the tools on top.
type CostService interface {
	// Totals aggregates all records matching the filter.
	Totals(ctx context.Context, f CostFilter) (*PeriodTotals, error)

	// ByCategory aggregates records grouped by service category.
	ByCategory(ctx context.Context, f CostFilter) ([]CategoryAggregate, error)

	// ByMonth aggregates records grouped by service month.
	ByMonth(ctx context.Context, f CostFilter) ([]MonthlyAggregate, error)

	// TopProcedures aggregates records grouped by procedure.
	TopProcedures(ctx context.Context, f CostFilter) ([]ProcedureAggregate, error)

	// Premium returns the total premium invoiced for the filter's period.
	Premium(ctx context.Context, f CostFilter) (float64, error)
}

// CostSummary is the overall spending picture for a client.
type CostSummary struct {
	ClientID   string       `json:"client_id"`
	ContractID string       `json:"contract_id,omitempty"`
	Totals     PeriodTotals `json:"totals"`
}

// CategoryShare is a category aggregate annotated with its share of the
// total paid amount.
type CategoryShare struct {
	CategoryAggregate
	Percentage float64 `json:"percentage"`
}

// CategoryReport breaks spending down by service category, largest first.
type CategoryReport struct {
	Categories []CategoryShare `json:"categories"`
	TotalPaid  float64         `json:"total_paid"`
}

// MonthlyPoint is a month aggregate annotated with the paid-amount change
// versus the previous month. Variation is nil for the first month and
// whenever the previous month paid nothing.
type MonthlyPoint struct {
	MonthlyAggregate
	VariationPercent *float64 `json:"variation_percent"`
}

// TrendReport is the month-by-month spending evolution.
type TrendReport struct {
	Periods []MonthlyPoint `json:"periods"`
}

// ProcedureShare is a procedure aggregate annotated with its share of the
// total paid amount.
type ProcedureShare struct {
	ProcedureAggregate
	Percentage float64 `json:"percentage"`
}

// ProcedureReport lists the costliest procedures, largest first.
type ProcedureReport struct {
	Procedures      []ProcedureShare `json:"procedures"`
	TotalProcedures int              `json:"total_procedures"`
	TotalPaidAll    float64          `json:"total_paid_all"`
}

// PeriodComparison contrasts two date ranges. Variation fields are nil when
// the first period's figure is zero, since no percentage is defined there.
type PeriodComparison struct {
	Period1            PeriodTotals `json:"period1"`
	Period2            PeriodTotals `json:"period2"`
	RecordsPercent     *float64     `json:"records_percent"`
	ChargedPercent     *float64     `json:"charged_percent"`
	PaidPercent        *float64     `json:"paid_percent"`
	AbsoluteDifference float64      `json:"absolute_difference"`
}

// ClaimsRatioReport is the sinistralidade of a period: claims paid divided
// by premium invoiced. Brazilian group contracts typically renegotiate
// above a 75% target.
type ClaimsRatioReport struct {
	TotalPaid    float64  `json:"total_paid"`
	TotalPremium float64  `json:"total_premium"`
	RatioPercent *float64 `json:"ratio_percent"`
	Target       float64  `json:"target_percent"`
}

// ClaimsRatioTarget is the renegotiation benchmark for the claims ratio.
const ClaimsRatioTarget = 75.0

// CostOptions configures the cost analysis tool.
type CostOptions struct {
	// TopProcedures caps the procedure ranking length.
	TopProcedures int

	// Logger receives tool call diagnostics.
	Logger logging.Logger
}

// Cost wraps the cost-record collaborator behind the analysis capabilities
// of the cost-insights agent.
type Cost struct {
	svc  CostService
	opts CostOptions
}

// NewCost creates a cost analysis tool over the given collaborator.
func NewCost(svc CostService, optFns ...func(o *CostOptions)) *Cost {
	opts := CostOptions{
		TopProcedures: 10,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Cost{svc: svc, opts: opts}
}

// Name returns the tool identifier used in logs and error codes.
func (c *Cost) Name() string { return "cost_analysis" }

// Summary returns the overall spending totals for a client.
func (c *Cost) Summary(ctx context.Context, f CostFilter) (*CostSummary, error) {
	totals, err := c.svc.Totals(ctx, f)
	if err != nil {
		return nil, wrapErr(c.Name(), err)
	}

	return &CostSummary{
		ClientID:   f.ClientID,
		ContractID: f.ContractID,
		Totals:     *totals,
	}, nil
}

// ByCategory breaks spending down by service category with each category's
// share of total paid, ordered largest first.
func (c *Cost) ByCategory(ctx context.Context, f CostFilter) (*CategoryReport, error) {
	aggs, err := c.svc.ByCategory(ctx, f)
	if err != nil {
		return nil, wrapErr(c.Name(), err)
	}

	var totalPaid float64
	for _, a := range aggs {
		totalPaid += a.TotalPaid
	}

	shares := make([]CategoryShare, 0, len(aggs))
	for _, a := range aggs {
		share := CategoryShare{CategoryAggregate: a}
		if totalPaid > 0 {
			share.Percentage = round2(a.TotalPaid / totalPaid * 100)
		}
		shares = append(shares, share)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].TotalPaid > shares[j].TotalPaid
	})

	return &CategoryReport{Categories: shares, TotalPaid: totalPaid}, nil
}

// Trend returns the month-by-month evolution with the paid-amount variation
// against the previous month.
func (c *Cost) Trend(ctx context.Context, f CostFilter) (*TrendReport, error) {
	aggs, err := c.svc.ByMonth(ctx, f)
	if err != nil {
		return nil, wrapErr(c.Name(), err)
	}

	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].Month < aggs[j].Month })

	points := make([]MonthlyPoint, len(aggs))
	for i, a := range aggs {
		points[i] = MonthlyPoint{MonthlyAggregate: a}
		if i > 0 {
			points[i].VariationPercent = variation(aggs[i-1].TotalPaid, a.TotalPaid)
		}
	}

	return &TrendReport{Periods: points}, nil
}

// TopProcedures ranks procedures by total paid, capped to the configured
// limit, with each entry's share of the total.
func (c *Cost) TopProcedures(ctx context.Context, f CostFilter) (*ProcedureReport, error) {
	aggs, err := c.svc.TopProcedures(ctx, f)
	if err != nil {
		return nil, wrapErr(c.Name(), err)
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].TotalPaid > aggs[j].TotalPaid
	})

	var totalPaid float64
	for _, a := range aggs {
		totalPaid += a.TotalPaid
	}

	limit := c.opts.TopProcedures
	if limit > len(aggs) {
		limit = len(aggs)
	}

	shares := make([]ProcedureShare, 0, limit)
	for _, a := range aggs[:limit] {
		share := ProcedureShare{ProcedureAggregate: a}
		if totalPaid > 0 {
			share.Percentage = round2(a.TotalPaid / totalPaid * 100)
		}
		shares = append(shares, share)
	}

	return &ProcedureReport{
		Procedures:      shares,
		TotalProcedures: len(aggs),
		TotalPaidAll:    totalPaid,
	}, nil
}

// ComparePeriods contrasts two date ranges, fetching both aggregations
// concurrently. Percentage variations are nil where the first period's
// figure is zero.
func (c *Cost) ComparePeriods(ctx context.Context, clientID, contractID string, p1, p2 [2]string) (*PeriodComparison, error) {
	var t1, t2 *PeriodTotals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t1, err = c.svc.Totals(gctx, CostFilter{ClientID: clientID, ContractID: contractID, Start: p1[0], End: p1[1]})
		return err
	})
	g.Go(func() error {
		var err error
		t2, err = c.svc.Totals(gctx, CostFilter{ClientID: clientID, ContractID: contractID, Start: p2[0], End: p2[1]})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapErr(c.Name(), err)
	}

	t1.Start, t1.End = p1[0], p1[1]
	t2.Start, t2.End = p2[0], p2[1]

	return &PeriodComparison{
		Period1:            *t1,
		Period2:            *t2,
		RecordsPercent:     variation(float64(t1.TotalRecords), float64(t2.TotalRecords)),
		ChargedPercent:     variation(t1.TotalCharged, t2.TotalCharged),
		PaidPercent:        variation(t1.TotalPaid, t2.TotalPaid),
		AbsoluteDifference: t2.TotalPaid - t1.TotalPaid,
	}, nil
}

// ClaimsRatio computes the sinistralidade for a period. The ratio is nil
// when no premium was invoiced.
func (c *Cost) ClaimsRatio(ctx context.Context, f CostFilter) (*ClaimsRatioReport, error) {
	var (
		totals  *PeriodTotals
		premium float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = c.svc.Totals(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		premium, err = c.svc.Premium(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapErr(c.Name(), err)
	}

	report := &ClaimsRatioReport{
		TotalPaid:    totals.TotalPaid,
		TotalPremium: premium,
		Target:       ClaimsRatioTarget,
	}
	if premium > 0 {
		ratio := round2(totals.TotalPaid / premium * 100)
		report.RatioPercent = &ratio
	}

	return report, nil
}

// variation returns the percentage change from base to current, or nil when
// the base is zero.
func variation(base, current float64) *float64 {
	if base == 0 {
		return nil
	}
	v := round2((current - base) / base * 100)
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
