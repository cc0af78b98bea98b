package session

import (
	"context"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/service"
)

// Summarize produces the up-front document summary shown alongside the
// Q&A session. It runs before fan-out, so no admission gate applies.
func (o *Orchestrator) Summarize(ctx context.Context, document string) (string, error) {
	prompt, err := o.prompts.RenderDocumentSummary(service.DocumentSummaryParams{
		Document: document,
	})
	if err != nil {
		return "", err
	}
	return o.gateway.Invoke(ctx, core.RoleSummarizer, prompt, nil)
}

// FinalReport produces the closing study report from the summary and
// the completed session results. Failed sections contribute whatever
// exchanges they finished before failing.
func (o *Orchestrator) FinalReport(ctx context.Context, summary string, results []core.SectionResult) (string, error) {
	var pairs []service.QAPairView
	for _, res := range results {
		for _, ex := range res.Exchanges() {
			pairs = append(pairs, service.QAPairView{
				Question: ex.Question,
				Answer:   ex.Answer,
				Kind:     ex.Kind,
				Section:  res.SectionIndex,
			})
		}
	}

	prompt, err := o.prompts.RenderFinalReport(service.FinalReportParams{
		Summary: summary,
		Pairs:   pairs,
	})
	if err != nil {
		return "", err
	}
	return o.gateway.Invoke(ctx, core.RoleSummarizer, prompt, nil)
}
