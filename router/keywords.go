package router

import (
	"strings"

	"github.com/hupe1980/costpilot/core"
)

// Keyword catalogues per intent, carried from the production system. All
// catalogues are Brazilian Portuguese, matching the questions the product
// receives. Matching is a case-insensitive substring test.
var intentKeywords = map[core.Intent][]string{
	core.IntentContractQuery: {
		"contrato", "cláusula", "carência", "cobertura", "exclusão",
		"reajuste contratual", "rede credenciada", "coparticipação",
		"portabilidade", "rescisão", "prazo", "vigência", "aditivo",
		"termos", "condições", "obrigações", "direitos", "beneficiário",
		"mensalidade", "plano", "titular", "dependente", "faixa etária",
		"tabela de preços", "valor do plano", "preço", "parcela",
	},
	core.IntentCostAnalysis: {
		"custo", "gasto", "sinistralidade", "despesa",
		"total gasto", "média de gastos", "evolução", "tendência",
		"comparar gastos", "período", "mês", "ano", "categoria",
		"procedimento realizado", "prestador", "hospital", "laboratório",
		"exame realizado", "consulta realizada", "internação realizada",
		"sinistro", "utilização", "frequência",
	},
	core.IntentNegotiation: {
		"renegociar", "renegociação", "economizar", "economia",
		"reduzir", "redução", "otimizar", "otimização",
		"oportunidade", "melhorar", "desconto", "negociar",
		"proposta", "alternativa", "benchmark", "mercado",
	},
}

// scoredIntents fixes the evaluation order so ties resolve the same way on
// every run.
var scoredIntents = []core.Intent{
	core.IntentContractQuery,
	core.IntentCostAnalysis,
	core.IntentNegotiation,
}

// keywordMatch is the outcome of the keyword scorer.
type keywordMatch struct {
	intent     core.Intent
	confidence float64
	found      []string
}

// detectByKeywords scores the question against the catalogues. Confidence
// grows with the hit count up to 0.9; a question with no hits is general
// with low confidence. When two intents tie at the top score, the broader
// intent wins: contract + cost collapse to cost_and_contract, and any tie
// involving negotiation stays negotiation.
func detectByKeywords(question string) keywordMatch {
	q := strings.ToLower(question)

	scores := make(map[core.Intent]int, len(scoredIntents))
	found := make(map[core.Intent][]string, len(scoredIntents))
	best := 0
	for _, intent := range scoredIntents {
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(q, kw) {
				scores[intent]++
				found[intent] = append(found[intent], kw)
			}
		}
		if scores[intent] > best {
			best = scores[intent]
		}
	}

	if best == 0 {
		return keywordMatch{intent: core.IntentGeneral, confidence: 0.3}
	}

	var top []core.Intent
	for _, intent := range scoredIntents {
		if scores[intent] == best {
			top = append(top, intent)
		}
	}

	if len(top) > 1 {
		if contains(top, core.IntentContractQuery) && contains(top, core.IntentCostAnalysis) {
			return keywordMatch{
				intent:     core.IntentCostAndContract,
				confidence: 0.7,
				found:      append(found[core.IntentContractQuery], found[core.IntentCostAnalysis]...),
			}
		}
		if contains(top, core.IntentNegotiation) {
			return keywordMatch{
				intent:     core.IntentNegotiation,
				confidence: 0.7,
				found:      found[core.IntentNegotiation],
			}
		}
	}

	intent := top[0]
	confidence := 0.5 + float64(best)*0.1
	if confidence > 0.9 {
		confidence = 0.9
	}

	return keywordMatch{intent: intent, confidence: confidence, found: found[intent]}
}

func contains(s []core.Intent, v core.Intent) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
