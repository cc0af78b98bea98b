package cmd

import "testing"

func TestCommandsRegistered(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"run":     false,
		"history": false,
		"version": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRunFlags(t *testing.T) {
	t.Parallel()

	for _, flag := range []string{
		"turns", "concurrency", "no-followups", "followup-threshold",
		"max-followups", "keywords", "output", "model", "no-history",
	} {
		if runCmd.Flags().Lookup(flag) == nil {
			t.Errorf("run flag --%s missing", flag)
		}
	}
}

func TestTruncateDoc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 40, "short"},
		{"multi\nline\ntext", 40, "multi line text"},
		{"abcdefghij", 5, "abcde..."},
	}
	for _, tt := range tests {
		if got := truncateDoc(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateDoc(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
