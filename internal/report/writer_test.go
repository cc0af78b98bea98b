package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
)

func sampleRecord() *core.SessionRecord {
	score := 0.8
	return &core.SessionRecord{
		ID:      "ses-test-abc",
		Summary: "a summary",
		Report:  "a closing report",
		Results: []core.SectionResult{
			{
				SectionIndex: 0,
				Status:       core.SectionStatusDone,
				Main:         &core.Exchange{Question: "main q", Answer: "main a", Kind: core.ExchangeMain},
				Followups: []core.Exchange{
					{Question: "fq", Answer: "fa", Kind: core.ExchangeFollowup, Ordinal: 1},
				},
				ComplexityScore: &score,
			},
			{
				SectionIndex: 1,
				Status:       core.SectionStatusFailed,
				Error:        "gateway exploded",
			},
		},
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriter_Write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(Config{Dir: dir, UseUTC: true}, logging.NewNop())

	path, err := w.Write(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	for _, frag := range []string{
		"session: ses-test-abc",
		"a summary",
		"main q", "main a",
		"follow-up 1", "fq", "fa",
		"Section failed: gateway exploded",
		"a closing report",
		"Complexity score: 0.80",
	} {
		assert.Contains(t, content, frag)
	}
}

func TestWriter_FrontmatterParses(t *testing.T) {
	t.Parallel()

	w := NewWriter(DefaultConfig(), logging.NewNop())
	content, err := w.Render(sampleRecord())
	require.NoError(t, err)

	parts := strings.SplitN(content, "---\n", 3)
	require.Len(t, parts, 3, "frontmatter delimiters missing")

	var fm struct {
		Session   string `yaml:"session"`
		Sections  int    `yaml:"sections"`
		Failed    int    `yaml:"failed"`
		Exchanges int    `yaml:"exchanges"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "ses-test-abc", fm.Session)
	assert.Equal(t, 2, fm.Sections)
	assert.Equal(t, 1, fm.Failed)
	assert.Equal(t, 2, fm.Exchanges)
}

func TestWriter_OverwriteIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(Config{Dir: dir}, logging.NewNop())

	rec := sampleRecord()
	_, err := w.Write(context.Background(), rec)
	require.NoError(t, err)

	rec.Summary = "updated summary"
	path, err := w.Write(context.Background(), rec)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "updated summary")
}
