package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
	"github.com/hugo-lorenzo-mato/docent/internal/report"
	"github.com/hugo-lorenzo-mato/docent/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past study sessions",
	RunE:  listHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the stored report for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  showHistory,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session from history",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.History.Path)
}

func listHistory(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	summaries, err := s.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSECTIONS\tFAILED\tEXCHANGES\tDOCUMENT")
	for _, sum := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			sum.ID,
			sum.CreatedAt.Local().Format("2006-01-02 15:04"),
			sum.SectionCount,
			sum.FailedCount,
			sum.ExchangeCount,
			truncateDoc(sum.Document, 40),
		)
	}
	return w.Flush()
}

func showHistory(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	rec, err := s.LoadSession(cmd.Context(), core.SessionID(args[0]))
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("session %s not found", args[0])
	}

	w := report.NewWriter(report.DefaultConfig(), logging.NewNop())
	content, err := w.Render(rec)
	if err != nil {
		return err
	}
	fmt.Print(content)
	return nil
}

func deleteHistory(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.DeleteSession(cmd.Context(), core.SessionID(args[0])); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}

// truncateDoc shortens document text for the listing, collapsing
// newlines so the table stays one row per session.
func truncateDoc(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
