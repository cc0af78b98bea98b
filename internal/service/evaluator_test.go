package service

import (
	"context"
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
)

func newRubricEvaluator(t *testing.T, reply string, err error) *RubricEvaluator {
	t.Helper()
	prompts, perr := NewPromptRenderer()
	if perr != nil {
		t.Fatalf("NewPromptRenderer() error: %v", perr)
	}
	gw := core.GatewayFunc(func(ctx context.Context, role core.Role, prompt string, history []core.Exchange) (string, error) {
		if role != core.RoleEvaluator {
			t.Errorf("role = %q, want evaluator", role)
		}
		return reply, err
	})
	return NewRubricEvaluator(gw, prompts, logging.NewNop())
}

func TestRubricEvaluator_Score(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  float64
	}{
		{"bare number", "0.7", 0.7},
		{"wrapped in prose", "The score is 0.3 overall.", 0.3},
		{"clamped high", "1.8", 1.0},
		{"clamped low", "-0.2", 0.0},
		{"unparsable", "quite complex", neutralScore},
		{"empty", "", neutralScore},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newRubricEvaluator(t, tt.reply, nil)
			if got := e.Score(context.Background(), "some answer"); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRubricEvaluator_GatewayFailureFailsSoft(t *testing.T) {
	t.Parallel()

	e := newRubricEvaluator(t, "", core.ErrGateway("backend down"))
	if got := e.Score(context.Background(), "answer"); got != neutralScore {
		t.Errorf("Score() = %v, want neutral %v", got, neutralScore)
	}
}

func TestLexicalEvaluator_Score(t *testing.T) {
	t.Parallel()

	e := NewLexicalEvaluator()

	plain := e.Score(context.Background(), "The cat sat on the mat. It was warm.")
	dense := e.Score(context.Background(),
		"The algorithm uses a statistical framework for optimization analysis. "+
			"Its implementation follows the methodology paradigm.")
	if plain >= dense {
		t.Errorf("plain text scored %v, dense text %v; want dense higher", plain, dense)
	}

	if got := e.Score(context.Background(), ""); got != 0 {
		t.Errorf("Score(empty) = %v, want 0", got)
	}
}

func TestLexicalEvaluator_LongSentenceBonus(t *testing.T) {
	t.Parallel()

	e := NewLexicalEvaluator()
	// One long run-on sentence, no specialized terms.
	long := strings.Repeat("word ", 30) + "."
	if got := e.Score(context.Background(), long); got != 0.2 {
		t.Errorf("Score(run-on) = %v, want 0.2", got)
	}
}

func TestPromptRenderer_Templates(t *testing.T) {
	t.Parallel()

	r, err := NewPromptRenderer()
	if err != nil {
		t.Fatalf("NewPromptRenderer() error: %v", err)
	}

	want := []string{
		"student-question", "teacher-answer", "followup-question",
		"followup-answer", "complexity-rubric", "document-summary",
		"final-report",
	}
	have := make(map[string]bool)
	for _, name := range r.ListTemplates() {
		have[name] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("template %q not loaded", name)
		}
	}
}

func TestPromptRenderer_StudentQuestion(t *testing.T) {
	t.Parallel()

	r, err := NewPromptRenderer()
	if err != nil {
		t.Fatalf("NewPromptRenderer() error: %v", err)
	}

	out, err := r.RenderStudentQuestion(StudentQuestionParams{
		Section:        "section body",
		TargetKeyword:  "entropy",
		PriorQuestions: []string{"What is heat?"},
	})
	if err != nil {
		t.Fatalf("RenderStudentQuestion() error: %v", err)
	}
	for _, frag := range []string{"section body", "entropy", "What is heat?"} {
		if !strings.Contains(out, frag) {
			t.Errorf("prompt missing %q:\n%s", frag, out)
		}
	}
}

func TestPromptRenderer_FollowupQuestionUsesAnswerOnly(t *testing.T) {
	t.Parallel()

	r, err := NewPromptRenderer()
	if err != nil {
		t.Fatalf("NewPromptRenderer() error: %v", err)
	}

	out, err := r.RenderFollowupQuestion(FollowupQuestionParams{Answer: "dense answer text"})
	if err != nil {
		t.Fatalf("RenderFollowupQuestion() error: %v", err)
	}
	if !strings.Contains(out, "dense answer text") {
		t.Errorf("prompt missing answer:\n%s", out)
	}
}

func TestPromptRenderer_FinalReport(t *testing.T) {
	t.Parallel()

	r, err := NewPromptRenderer()
	if err != nil {
		t.Fatalf("NewPromptRenderer() error: %v", err)
	}

	out, err := r.RenderFinalReport(FinalReportParams{
		Summary: "doc summary",
		Pairs: []QAPairView{
			{Question: "q1", Answer: "a1", Kind: core.ExchangeMain, Section: 0},
			{Question: "q2", Answer: "a2", Kind: core.ExchangeFollowup, Section: 0},
		},
	})
	if err != nil {
		t.Fatalf("RenderFinalReport() error: %v", err)
	}
	for _, frag := range []string{"doc summary", "q1", "a2", "Follow-up"} {
		if !strings.Contains(out, frag) {
			t.Errorf("prompt missing %q:\n%s", frag, out)
		}
	}
}
