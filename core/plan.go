package core

import "fmt"

// Intent classifies an incoming question into one of a fixed set of routing
// intents. Values match the classifier's vocabulary.
type Intent string

const (
	// IntentContractQuery covers clauses, waiting periods, coverage and
	// other contract-text questions.
	IntentContractQuery Intent = "contract_query"
	// IntentCostAnalysis covers spend, utilization and claims-ratio
	// questions over structured cost records.
	IntentCostAnalysis Intent = "cost_analysis"
	// IntentNegotiation covers savings and renegotiation questions.
	IntentNegotiation Intent = "negotiation"
	// IntentCostAndContract covers questions touching both contract text
	// and cost data.
	IntentCostAndContract Intent = "cost_and_contract"
	// IntentGeneral is the deterministic fallback for ambiguous questions
	// and classifier failures.
	IntentGeneral Intent = "general"
)

// Stage is a set of agents eligible to run concurrently.
type Stage []string

// Plan is an ordered list of stages. Stages execute strictly in sequence;
// agents within a stage run concurrently. A later stage may consume any
// earlier stage's output through the SharedContext accumulator.
type Plan struct {
	Intent Intent  `json:"intent"`
	Stages []Stage `json:"stages"`
}

// Agents returns all agent names of the plan in stage order.
func (p Plan) Agents() []string {
	var out []string
	for _, st := range p.Stages {
		out = append(out, st...)
	}
	return out
}

// Contains reports whether the plan schedules the named agent.
func (p Plan) Contains(agent string) bool {
	for _, st := range p.Stages {
		for _, a := range st {
			if a == agent {
				return true
			}
		}
	}
	return false
}

// Validate enforces the plan invariants: at least one non-empty stage and no
// agent appearing in two stages.
func (p Plan) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("plan %q has no stages", p.Intent)
	}
	seen := map[string]bool{}
	for i, st := range p.Stages {
		if len(st) == 0 {
			return fmt.Errorf("plan %q stage %d is empty", p.Intent, i)
		}
		for _, a := range st {
			if seen[a] {
				return fmt.Errorf("plan %q schedules agent %q twice", p.Intent, a)
			}
			seen[a] = true
		}
	}
	return nil
}
