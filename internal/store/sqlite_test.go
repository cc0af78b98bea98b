package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(id string) *core.SessionRecord {
	score := 0.7
	return &core.SessionRecord{
		ID:       core.SessionID(id),
		Document: "document body",
		Summary:  "summary text",
		Report:   "report text",
		Results: []core.SectionResult{
			{
				SectionIndex: 0,
				Status:       core.SectionStatusDone,
				Main:         &core.Exchange{Question: "q0", Answer: "a0", Kind: core.ExchangeMain},
				Followups: []core.Exchange{
					{Question: "fq1", Answer: "fa1", Kind: core.ExchangeFollowup, Ordinal: 1},
					{Question: "fq2", Answer: "fa2", Kind: core.ExchangeFollowup, Ordinal: 2},
				},
				ComplexityScore: &score,
			},
			{
				SectionIndex: 1,
				Status:       core.SectionStatusFailed,
				Error:        "gateway failed",
			},
		},
		CreatedAt: time.Now(),
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, testRecord("ses-1")); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}

	rec, err := s.LoadSession(ctx, "ses-1")
	if err != nil {
		t.Fatalf("LoadSession() error: %v", err)
	}
	if rec == nil {
		t.Fatal("LoadSession() = nil for existing session")
	}
	if rec.Document != "document body" || rec.Summary != "summary text" {
		t.Errorf("loaded record fields wrong: %+v", rec)
	}
	if len(rec.Results) != 2 {
		t.Fatalf("loaded %d results, want 2", len(rec.Results))
	}

	first := rec.Results[0]
	if first.Main == nil || first.Main.Question != "q0" {
		t.Errorf("main exchange = %+v", first.Main)
	}
	if len(first.Followups) != 2 || first.Followups[1].Answer != "fa2" {
		t.Errorf("followups = %+v", first.Followups)
	}
	if first.ComplexityScore == nil || *first.ComplexityScore != 0.7 {
		t.Errorf("complexity score = %v", first.ComplexityScore)
	}

	second := rec.Results[1]
	if second.Status != core.SectionStatusFailed || second.Error != "gateway failed" {
		t.Errorf("failed section = %+v", second)
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	rec, err := s.LoadSession(context.Background(), "nope")
	if err != nil {
		t.Fatalf("LoadSession() error: %v", err)
	}
	if rec != nil {
		t.Errorf("LoadSession(missing) = %+v, want nil", rec)
	}
}

func TestSQLiteStore_SaveReplacesResults(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("ses-1")
	if err := s.SaveSession(ctx, rec); err != nil {
		t.Fatalf("first SaveSession() error: %v", err)
	}

	rec.Results = rec.Results[:1]
	rec.Summary = "revised"
	if err := s.SaveSession(ctx, rec); err != nil {
		t.Fatalf("second SaveSession() error: %v", err)
	}

	loaded, err := s.LoadSession(ctx, "ses-1")
	if err != nil {
		t.Fatalf("LoadSession() error: %v", err)
	}
	if loaded.Summary != "revised" {
		t.Errorf("summary = %q, want revised", loaded.Summary)
	}
	if len(loaded.Results) != 1 {
		t.Errorf("loaded %d results after replace, want 1", len(loaded.Results))
	}
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	older := testRecord("ses-old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testRecord("ses-new")
	newer.CreatedAt = time.Now()

	for _, rec := range []*core.SessionRecord{older, newer} {
		if err := s.SaveSession(ctx, rec); err != nil {
			t.Fatalf("SaveSession(%s) error: %v", rec.ID, err)
		}
	}

	summaries, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(summaries))
	}
	if summaries[0].ID != "ses-new" || summaries[1].ID != "ses-old" {
		t.Errorf("order = %s, %s; want newest first", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].SectionCount != 2 || summaries[0].FailedCount != 1 {
		t.Errorf("counts = %+v", summaries[0])
	}
	if summaries[0].ExchangeCount != 3 {
		t.Errorf("exchange count = %d, want 3", summaries[0].ExchangeCount)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, testRecord("ses-1")); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}
	if err := s.DeleteSession(ctx, "ses-1"); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}

	rec, err := s.LoadSession(ctx, "ses-1")
	if err != nil {
		t.Fatalf("LoadSession() error: %v", err)
	}
	if rec != nil {
		t.Error("session still present after delete")
	}

	err = s.DeleteSession(ctx, "ses-1")
	if err == nil {
		t.Fatal("second DeleteSession() = nil, want not-found error")
	}
	if !core.IsCategory(err, core.ErrCatState) {
		t.Errorf("error category = %v, want state", core.GetCategory(err))
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	if err := s.SaveSession(ctx, testRecord("ses-1")); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	rec, err := reopened.LoadSession(ctx, "ses-1")
	if err != nil {
		t.Fatalf("LoadSession() after reopen: %v", err)
	}
	if rec == nil {
		t.Fatal("session lost across reopen")
	}
}
