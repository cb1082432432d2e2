package main

import (
	"slices"
	"strings"
	"testing"

	"autopost/internal/preflight"
	"autopost/internal/scheduler"
)

func TestBuildQueueStatusRows(t *testing.T) {
	if rows := buildQueueStatusRows(map[string]int{"pending": 0, "posted": 0, "failed": 0}); rows != nil {
		t.Fatalf("empty queue should yield no rows, got %v", rows)
	}
	rows := buildQueueStatusRows(map[string]int{"failed": 2, "pending": 1, "posted": 0})
	var labels []string
	for _, row := range rows {
		labels = append(labels, row[0]+"="+row[1])
	}
	if !slices.Equal(labels, []string{"Pending=1", "Posted=0", "Failed=2"}) {
		t.Fatalf("unexpected rows %v", labels)
	}
}

func TestParsePositiveIDs(t *testing.T) {
	ids, err := parsePositiveIDs([]string{"1", " 7 "})
	if err != nil || !slices.Equal(ids, []int64{1, 7}) {
		t.Fatalf("parsePositiveIDs = %v, %v", ids, err)
	}
	for _, bad := range []string{"0", "-3", "x"} {
		if _, err := parsePositiveIDs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestTruncateAndOneLine(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a caption that runs long", 10, "a capti..."},
		{"héllo wörld", 5, "hé..."},
	}
	for _, tc := range tests {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
	if got := oneLine("line one\n  line two\t"); got != "line one line two" {
		t.Fatalf("oneLine = %q", got)
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "Running", false)
	if !strings.Contains(line, "Daemon:") || !strings.HasSuffix(line, "[OK] Running") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Daemon", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red coloring, got %q", colored)
	}
}

func TestStatusKindFromCheck(t *testing.T) {
	cases := []struct {
		result preflight.Result
		want   statusKind
	}{
		{preflight.Result{Passed: true}, statusOK},
		{preflight.Result{Passed: true, Warning: true}, statusWarn},
		{preflight.Result{}, statusError},
	}
	for _, tc := range cases {
		if got := statusKindFromCheck(tc.result); got != tc.want {
			t.Fatalf("statusKindFromCheck(%+v) = %v, want %v", tc.result, got, tc.want)
		}
	}
}

func TestPrintReportOutcomes(t *testing.T) {
	var sb strings.Builder
	printReport(&sb, scheduler.Report{Outcome: scheduler.OutcomePosted, ItemID: 4, Filename: "a.mp4", Diverted: true})
	printReport(&sb, scheduler.Report{Outcome: scheduler.OutcomeFailed, ItemID: 5, Filename: "b.mp4", Message: "file missing: gone"})
	printReport(&sb, scheduler.Report{Outcome: scheduler.OutcomeSkipped})
	out := sb.String()
	for _, want := range []string{"redirected without confirming", "failed permanently: file missing", "in progress"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
