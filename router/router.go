package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/costpilot/core"
	"github.com/hupe1980/costpilot/logging"
	"github.com/hupe1980/costpilot/model"
)

// Prompt for model-backed classification of ambiguous questions. The model
// must answer with a bare JSON object.
const intentAnalysisPrompt = `Analise a pergunta do usuário e classifique a intenção.

Categorias de intenção:
- contract_query: Perguntas sobre cláusulas, coberturas, carências, termos do contrato
- cost_analysis: Perguntas sobre custos, gastos, sinistralidade, valores, tendências
- negotiation: Perguntas sobre economia, renegociação, oportunidades, otimização
- cost_and_contract: Perguntas que envolvem tanto contrato quanto custos
- general: Perguntas gerais ou que não se encaixam nas categorias acima

Responda APENAS com um JSON no formato:
{
    "intent": "categoria_da_intencao",
    "confidence": 0.0 a 1.0,
    "reasoning": "breve explicação"
}`

// Decision is the routing outcome recorded in the assistant turn's metadata.
type Decision struct {
	Intent     core.Intent `json:"intent"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning"`
	Plan       core.Plan   `json:"plan"`
}

// Options configures the router.
type Options struct {
	// KeywordThreshold is the keyword-scorer confidence above which the
	// model classifier is skipped.
	KeywordThreshold float64

	// Logger receives routing diagnostics.
	Logger logging.Logger
}

// Router classifies questions into execution plans.
type Router struct {
	model model.Model
	opts  Options
}

// New creates a router. The model is only consulted for questions the
// keyword scorer cannot settle; it may be nil, in which case ambiguous
// questions always take the keyword result.
func New(m model.Model, optFns ...func(o *Options)) *Router {
	opts := Options{
		KeywordThreshold: 0.6,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{model: m, opts: opts}
}

// Route picks the execution plan for the question. It never fails: a model
// classification error falls back to the keyword result, so the same
// question and context always produce a plan. For clients without claim
// records the plan is degraded to its contract-only shape.
func (r *Router) Route(ctx context.Context, sc *core.SharedContext) Decision {
	d := r.resolve(ctx, sc)

	if !sc.HasCostData {
		d.Plan = withoutCostInsights(d.Plan)
		r.opts.Logger.Info("no cost data for client, cost analysis dropped from plan",
			"intent", d.Intent, "agents", d.Plan.Agents())
	}

	return d
}

func (r *Router) resolve(ctx context.Context, sc *core.SharedContext) Decision {
	match := detectByKeywords(sc.Question)

	if match.confidence >= r.opts.KeywordThreshold {
		r.opts.Logger.Debug("intent settled by keywords",
			"intent", match.intent, "confidence", match.confidence, "keywords", match.found)
		return r.decision(match.intent, match.confidence,
			fmt.Sprintf("Detectado por keywords: %s", strings.Join(match.found, ", ")))
	}

	if r.model != nil {
		d, err := r.classify(ctx, sc.Question)
		if err == nil {
			return d
		}
		r.opts.Logger.Warn("intent classification failed, using keyword fallback", "error", err)
	}

	return r.decision(match.intent, match.confidence,
		fmt.Sprintf("Fallback para keywords: %s", strings.Join(match.found, ", ")))
}

// classify asks the model for an intent and parses its JSON answer.
func (r *Router) classify(ctx context.Context, question string) (Decision, error) {
	resp, err := r.model.Generate(ctx, model.Request{
		Instructions: intentAnalysisPrompt,
		Messages:     []model.Message{model.UserMessage("Pergunta: " + question)},
	})
	if err != nil {
		return Decision{}, err
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}

	raw := extractJSON(resp.Text)
	if raw == "" {
		return Decision{}, fmt.Errorf("no JSON object in classifier answer")
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Decision{}, fmt.Errorf("parse classifier answer: %w", err)
	}

	intent := core.Intent(parsed.Intent)
	if !validIntent(intent) {
		intent = core.IntentGeneral
	}
	if parsed.Confidence <= 0 {
		parsed.Confidence = 0.5
	}
	if parsed.Reasoning == "" {
		parsed.Reasoning = "Análise por LLM"
	}

	return r.decision(intent, parsed.Confidence, parsed.Reasoning), nil
}

func (r *Router) decision(intent core.Intent, confidence float64, reasoning string) Decision {
	return Decision{
		Intent:     intent,
		Confidence: confidence,
		Reasoning:  reasoning,
		Plan:       PlanFor(intent),
	}
}

// extractJSON returns the outermost {...} span of s, or empty.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func validIntent(intent core.Intent) bool {
	switch intent {
	case core.IntentContractQuery, core.IntentCostAnalysis, core.IntentNegotiation,
		core.IntentCostAndContract, core.IntentGeneral:
		return true
	}
	return false
}
