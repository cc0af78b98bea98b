package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
)

// neutralScore is returned when scoring cannot produce a usable number.
// Complexity scoring steers follow-ups; it is never a correctness
// requirement, so a bad score costs at most one extra or one fewer round.
const neutralScore = 0.5

// RubricEvaluator scores answer complexity by asking the gateway to
// grade against a fixed rubric.
type RubricEvaluator struct {
	gateway core.Gateway
	prompts *PromptRenderer
	logger  *logging.Logger
}

// NewRubricEvaluator creates a gateway-backed complexity scorer.
func NewRubricEvaluator(gateway core.Gateway, prompts *PromptRenderer, logger *logging.Logger) *RubricEvaluator {
	return &RubricEvaluator{
		gateway: gateway,
		prompts: prompts,
		logger:  logger,
	}
}

// Score rates the answer in [0,1]. Gateway failures and unparsable
// responses degrade to the neutral default instead of erroring.
func (e *RubricEvaluator) Score(ctx context.Context, answer string) float64 {
	prompt, err := e.prompts.RenderComplexityRubric(ComplexityRubricParams{Answer: answer})
	if err != nil {
		e.logger.Warn("rendering rubric prompt failed", "error", err)
		return neutralScore
	}

	reply, err := e.gateway.Invoke(ctx, core.RoleEvaluator, prompt, nil)
	if err != nil {
		e.logger.Warn("complexity scoring call failed", "error", err)
		return neutralScore
	}

	score, ok := parseScore(reply)
	if !ok {
		e.logger.Warn("complexity score unparsable", "reply", truncateForLog(reply))
		return neutralScore
	}
	return clampScore(score)
}

// parseScore extracts the first number from the model reply.
// Models occasionally wrap the number in prose despite instructions.
func parseScore(reply string) (float64, bool) {
	for _, field := range strings.Fields(reply) {
		cleaned := strings.Trim(field, ".,:;()[]")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncateForLog(s string) string {
	if len(s) <= 80 {
		return s
	}
	return s[:80] + "..."
}

// specializedTerms marks vocabulary that signals a technical answer.
var specializedTerms = []string{
	"algorithm", "methodology", "hypothesis", "correlation", "statistical",
	"paradigm", "framework", "implementation", "optimization", "analysis",
	"architecture", "protocol", "parameter", "heuristic", "asymptotic",
}

// LexicalEvaluator scores complexity from surface features of the text:
// specialized-term density plus a penalty for long sentences. It needs
// no gateway and serves as the offline scorer.
type LexicalEvaluator struct{}

// NewLexicalEvaluator creates the heuristic scorer.
func NewLexicalEvaluator() *LexicalEvaluator {
	return &LexicalEvaluator{}
}

// Score rates the answer in [0,1].
func (e *LexicalEvaluator) Score(_ context.Context, answer string) float64 {
	words := strings.Fields(strings.ToLower(answer))
	if len(words) == 0 {
		return 0
	}

	specialized := 0
	for _, w := range words {
		for _, term := range specializedTerms {
			if strings.Contains(w, term) {
				specialized++
				break
			}
		}
	}

	// Term density scaled so ~10% specialized vocabulary saturates.
	score := clampScore(float64(specialized) / float64(len(words)) * 10)

	sentences := strings.Count(answer, ".")
	if sentences < 1 {
		sentences = 1
	}
	if float64(len(words))/float64(sentences) > 20 {
		score += 0.2
	}

	return clampScore(score)
}
