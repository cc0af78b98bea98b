package service

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

// PromptRenderer renders prompts from embedded templates.
type PromptRenderer struct {
	templates map[string]*template.Template
	mu        sync.RWMutex
}

// NewPromptRenderer creates a new prompt renderer.
func NewPromptRenderer() (*PromptRenderer, error) {
	r := &PromptRenderer{
		templates: make(map[string]*template.Template),
	}
	if err := r.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return r, nil
}

func (r *PromptRenderer) loadTemplates() error {
	return fs.WalkDir(promptsFS, "prompts", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md.tmpl") {
			return nil
		}

		content, err := promptsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		name := strings.TrimPrefix(path, "prompts/")
		name = strings.TrimSuffix(name, ".md.tmpl")

		tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}

		r.templates[name] = tmpl
		return nil
	})
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":      strings.Join,
		"trimSpace": strings.TrimSpace,
		"add":       func(a, b int) int { return a + b },
	}
}

// StudentQuestionParams feeds the main question template.
type StudentQuestionParams struct {
	Section        string
	TargetKeyword  string
	PriorQuestions []string
}

// RenderStudentQuestion renders the main question prompt for a section.
func (r *PromptRenderer) RenderStudentQuestion(params StudentQuestionParams) (string, error) {
	return r.render("student-question", params)
}

// TeacherAnswerParams feeds the main answer template.
type TeacherAnswerParams struct {
	Question string
	Section  string
}

// RenderTeacherAnswer renders the answer prompt for a question.
func (r *PromptRenderer) RenderTeacherAnswer(params TeacherAnswerParams) (string, error) {
	return r.render("teacher-answer", params)
}

// FollowupQuestionParams feeds the follow-up question template.
// Only the latest answer is provided; the follow-up asks for
// simplification of that answer, not fresh section coverage.
type FollowupQuestionParams struct {
	Answer string
}

// RenderFollowupQuestion renders a follow-up question prompt.
func (r *PromptRenderer) RenderFollowupQuestion(params FollowupQuestionParams) (string, error) {
	return r.render("followup-question", params)
}

// FollowupAnswerParams feeds the follow-up answer template.
type FollowupAnswerParams struct {
	Question string
	Section  string
}

// RenderFollowupAnswer renders a follow-up answer prompt.
func (r *PromptRenderer) RenderFollowupAnswer(params FollowupAnswerParams) (string, error) {
	return r.render("followup-answer", params)
}

// ComplexityRubricParams feeds the scoring rubric template.
type ComplexityRubricParams struct {
	Answer string
}

// RenderComplexityRubric renders the numeric scoring prompt.
func (r *PromptRenderer) RenderComplexityRubric(params ComplexityRubricParams) (string, error) {
	return r.render("complexity-rubric", params)
}

// DocumentSummaryParams feeds the summary template.
type DocumentSummaryParams struct {
	Document string
}

// RenderDocumentSummary renders the up-front document summary prompt.
func (r *PromptRenderer) RenderDocumentSummary(params DocumentSummaryParams) (string, error) {
	return r.render("document-summary", params)
}

// QAPairView is one exchange formatted for the final report template.
type QAPairView struct {
	Question string
	Answer   string
	Kind     core.ExchangeKind
	Section  int
}

// FinalReportParams feeds the final report template.
type FinalReportParams struct {
	Summary string
	Pairs   []QAPairView
}

// RenderFinalReport renders the closing study report prompt.
func (r *PromptRenderer) RenderFinalReport(params FinalReportParams) (string, error) {
	return r.render("final-report", params)
}

func (r *PromptRenderer) render(name string, data interface{}) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

// ListTemplates returns available template names.
func (r *PromptRenderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
