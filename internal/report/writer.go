// Package report renders finished study sessions to markdown files.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
)

// Config configures the report writer.
type Config struct {
	Dir    string // default: ".docent/reports"
	UseUTC bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Dir:    ".docent/reports",
		UseUTC: true,
	}
}

// Writer renders session records as markdown study reports.
// Files are written atomically so a crash never leaves a torn report.
type Writer struct {
	cfg    Config
	logger *logging.Logger
}

// NewWriter creates a report writer.
func NewWriter(cfg Config, logger *logging.Logger) *Writer {
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	return &Writer{cfg: cfg, logger: logger}
}

// frontmatter is the YAML header of a report file.
type frontmatter struct {
	Session   string    `yaml:"session"`
	Created   time.Time `yaml:"created"`
	Sections  int       `yaml:"sections"`
	Failed    int       `yaml:"failed"`
	Exchanges int       `yaml:"exchanges"`
}

// Write renders the record and persists it under the configured
// directory. Returns the written file path.
func (w *Writer) Write(_ context.Context, rec *core.SessionRecord) (string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o750); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	content, err := w.render(rec)
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.cfg.Dir, fmt.Sprintf("%s.md", rec.ID))
	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	w.logger.Info("report written", "path", path, "sections", len(rec.Results))
	return path, nil
}

// Render produces the report markdown without persisting it.
func (w *Writer) Render(rec *core.SessionRecord) (string, error) {
	return w.render(rec)
}

func (w *Writer) render(rec *core.SessionRecord) (string, error) {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if w.cfg.UseUTC {
		created = created.UTC()
	}

	failed, exchanges := 0, 0
	for _, r := range rec.Results {
		if !r.Succeeded() {
			failed++
		}
		exchanges += len(r.Exchanges())
	}

	fm, err := yaml.Marshal(frontmatter{
		Session:   string(rec.ID),
		Created:   created,
		Sections:  len(rec.Results),
		Failed:    failed,
		Exchanges: exchanges,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fm)
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("# Study report %s\n\n", rec.ID))

	if rec.Summary != "" {
		sb.WriteString("## Document summary\n\n")
		sb.WriteString(strings.TrimSpace(rec.Summary))
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Q&A session\n\n")
	for _, res := range rec.Results {
		w.renderSection(&sb, res)
	}

	if rec.Report != "" {
		sb.WriteString("## Closing report\n\n")
		sb.WriteString(strings.TrimSpace(rec.Report))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func (w *Writer) renderSection(sb *strings.Builder, res core.SectionResult) {
	sb.WriteString(fmt.Sprintf("### Section %d\n\n", res.SectionIndex+1))

	switch res.Status {
	case core.SectionStatusFailed:
		sb.WriteString(fmt.Sprintf("> Section failed: %s\n\n", res.Error))
	case core.SectionStatusCancelled:
		sb.WriteString("> Section cancelled before completion.\n\n")
	}

	if res.Main != nil {
		sb.WriteString(fmt.Sprintf("**Q:** %s\n\n", strings.TrimSpace(res.Main.Question)))
		sb.WriteString(fmt.Sprintf("**A:** %s\n\n", strings.TrimSpace(res.Main.Answer)))
	}
	for _, f := range res.Followups {
		sb.WriteString(fmt.Sprintf("**Q (follow-up %d):** %s\n\n", f.Ordinal, strings.TrimSpace(f.Question)))
		sb.WriteString(fmt.Sprintf("**A:** %s\n\n", strings.TrimSpace(f.Answer)))
	}
	if res.ComplexityScore != nil {
		sb.WriteString(fmt.Sprintf("_Complexity score: %.2f_\n\n", *res.ComplexityScore))
	}
}
