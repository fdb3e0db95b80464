package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/sadopc/worklog/internal/config"
	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/tracker"
)

func init() {
	color.NoColor = true
}

// run executes the root command against a fresh database in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	rowFlags = nil
	startLast = false
	exportFormat = "csv"
	exportOut = ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--db", filepath.Join(dir, "worklog.db"),
		"--log-level", "error",
	}
	rootCmd.SetArgs(append(args, base...))
	err := rootCmd.Execute()
	return out.String(), err
}

// ============================================================
// Argument parsing
// ============================================================

func TestParseMonth(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.Local)

	y, m, err := parseMonth("", now)
	if err != nil || y != 2024 || m != time.June {
		t.Fatalf("parseMonth(\"\") = %d %v %v", y, m, err)
	}
	y, m, err = parseMonth("2023-12", now)
	if err != nil || y != 2023 || m != time.December {
		t.Fatalf("parseMonth(2023-12) = %d %v %v", y, m, err)
	}
	for _, bad := range []string{"2023-13", "June", "2023/12"} {
		if _, _, err := parseMonth(bad, now); err == nil {
			t.Errorf("parseMonth(%q) should fail", bad)
		}
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 30, 0, 0, time.Local)

	d, err := parseDay("2024-06-05", now)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(time.Date(2024, time.June, 5, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("parseDay = %v", d)
	}
	d, err = parseDay("today", now)
	if err != nil || !d.Equal(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("parseDay(today) = %v, %v", d, err)
	}
	if _, err := parseDay("05.06.2024", now); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		in   string
		want reconcile.Row
	}{
		{"09:00,17:00", reconcile.Row{Start: "09:00", End: "17:00"}},
		{"09:00,17:00,work", reconcile.Row{Start: "09:00", End: "17:00", Tags: "work"}},
		{" 09:00 , 17:00 , work, review ", reconcile.Row{Start: "09:00", End: "17:00", Tags: "work, review"}},
		{"22:00,24:00,", reconcile.Row{Start: "22:00", End: "24:00"}},
	}
	for _, tt := range tests {
		got, err := parseRow(tt.in)
		if err != nil {
			t.Fatalf("parseRow(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseRow(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	if _, err := parseRow("09:00"); err == nil {
		t.Fatal("expected error for a row without an end")
	}
}

func TestFormatHM(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:00"},
		{5 * time.Minute, "0:05"},
		{7*time.Hour + 5*time.Minute, "7:05"},
		{31 * time.Hour, "31:00"},
	}
	for _, tt := range tests {
		if got := formatHM(tt.d); got != tt.want {
			t.Errorf("formatHM(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestExportPath(t *testing.T) {
	if got := exportPath("x.json", "2024-06", export.FormatJSON); got != "x.json" {
		t.Fatalf("exportPath = %q", got)
	}
	if got := exportPath("", "2024-06", export.FormatYAML); got != "worklog-2024-06.yaml" {
		t.Fatalf("exportPath = %q", got)
	}
}

// ============================================================
// Rendering
// ============================================================

func TestPrintSummary(t *testing.T) {
	at := func(d, h int) time.Time { return time.Date(2024, time.June, d, h, 0, 0, 0, time.Local) }
	ivs := []interval.Interval{
		interval.New(at(3, 9), at(3, 11), "work"),
		interval.New(at(4, 9), at(4, 10), "work", "review"),
	}
	now := at(10, 12)
	sum := report.BuildMonthSummary(ivs, 2024, time.June, now, now)

	var buf bytes.Buffer
	printSummary(&buf, sum)
	out := buf.String()

	for _, want := range []string{
		"June 2024",
		"Mon 03",
		"By tag set",
		"work, review",
		"By tag",
		"Total  3:00",
		"Estimated month end: 9:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummaryEmpty(t *testing.T) {
	july := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.Local)
	sum := report.BuildMonthSummary(nil, 2024, time.June, july, july)

	var buf bytes.Buffer
	printSummary(&buf, sum)
	if !strings.Contains(buf.String(), "No time tracked.") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestPrintRows(t *testing.T) {
	day := time.Date(2024, time.June, 5, 0, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	printRows(&buf, day, []reconcile.Row{
		{Start: "09:00", End: "10:00", Tags: "a"},
		{Start: "11:00", End: "", Tags: "b"},
	}, true)
	out := buf.String()
	for _, want := range []string{"Wednesday, 5 June 2024", "09:00 - 10:00", "running", "active tracker"} {
		if !strings.Contains(out, want) {
			t.Errorf("rows missing %q:\n%s", want, out)
		}
	}
}

func TestSetupLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
}

// ============================================================
// Commands
// ============================================================

func TestSaveDayAndSummaryCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "save-day", "2024-06-05",
		"--row", "13:00,15:00,work",
		"--row", "09:00,10:30,work, review")
	if err != nil {
		t.Fatalf("save-day: %v", err)
	}
	if !strings.Contains(out, "2 interval(s)") {
		t.Fatalf("save-day output: %s", out)
	}

	out, err = run(t, dir, "day", "2024-06-05")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if !strings.Contains(out, "09:00 - 10:30") || !strings.Contains(out, "work, review") {
		t.Fatalf("day output: %s", out)
	}

	out, err = run(t, dir, "summary", "2024-06")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "Total  3:30") {
		t.Fatalf("summary output: %s", out)
	}
}

func TestSaveDayCommandRejectsInvalidRow(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "save-day", "2024-06-05", "--row", "10:00,09:00")
	var verr *reconcile.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if err.Error() != "row 1 (10:00-09:00): End time must be after start time" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestStopCommandWithoutTracker(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "stop")
	if !errors.Is(err, tracker.ErrNoActiveTracker) {
		t.Fatalf("err = %v, want ErrNoActiveTracker", err)
	}
	if !strings.Contains(out, "Nothing is being tracked.") {
		t.Fatalf("stop output: %s", out)
	}
}

func TestStartAndStatusCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "start", "work", "deep focus")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(out, "Started [work, deep focus]") {
		t.Fatalf("start output: %s", out)
	}

	out, err = run(t, dir, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Tracking [work, deep focus]") {
		t.Fatalf("status output: %s", out)
	}
}

func TestSaveDayCommandRefusesActiveTrackerDay(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "start", "work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	out, err := run(t, dir, "save-day", "today", "--row", "09:00,10:00,other")
	if !errors.Is(err, tracker.ErrDayHasActiveTracker) {
		t.Fatalf("err = %v, want ErrDayHasActiveTracker", err)
	}
	if !strings.Contains(out, "Stop the active tracker") {
		t.Fatalf("save-day output: %s", out)
	}

	out, err = run(t, dir, "status")
	if err != nil || !strings.Contains(out, "Tracking [work]") {
		t.Fatalf("tracker lost after refused save: %s, %v", out, err)
	}
}

func TestImportAndExportCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	body := "20240605T090000 - 20240605T100000 # a\n20240606T090000 - 20240606T093000 # b\n"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "import", src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 interval(s)") {
		t.Fatalf("import output: %s", out)
	}

	dst := filepath.Join(dir, "june.json")
	if _, err := run(t, dir, "export", "2024-06", "--format", "json", "--out", dst); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"total_seconds": 5400`) {
		t.Fatalf("export content: %s", data)
	}
}

func TestExportCommandRejectsFormat(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "export", "2024-06", "--format", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
