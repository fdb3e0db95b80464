package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/worklog/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM]",
	Short: "Print the month summary",
	Long:  `Print daily totals and tag breakdowns for a month, defaulting to the current one.`,
	Example: `  worklog summary
  worklog summary 2024-06`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	year, month, err := parseMonth(arg, s.svc.Now())
	if err != nil {
		return err
	}

	sum, err := s.svc.Summary(year, month)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printSummary(w io.Writer, sum report.MonthSummary) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)
	muted := color.New(color.FgHiBlack)

	cyan.Fprintln(w, sum.Title)
	fmt.Fprintln(w, strings.Repeat("─", 40))

	if sum.Total == 0 {
		muted.Fprintln(w, "No time tracked.")
		return
	}

	start := sum.Start()
	for i, d := range sum.Days {
		if d == 0 {
			continue
		}
		day := start.AddDate(0, 0, i)
		fmt.Fprintf(w, "  %s  %6s\n", day.Format("Mon 02"), formatHM(d))
	}
	fmt.Fprintln(w)

	printTags(w, "By tag set", sum.Combined, sum, yellow)
	if sum.HasMultiTag {
		printTags(w, "By tag", sum.Individual, sum, yellow)
	}

	green.Fprintf(w, "Total  %s", formatHM(sum.Total))
	if sum.ShowEstimation {
		yellow.Fprintf(w, "  (%s: %s)", sum.EstimationLabel, formatHM(sum.EstimatedTotal))
	}
	fmt.Fprintln(w)
}

func printTags(w io.Writer, title string, totals []report.TagTotal, sum report.MonthSummary, est *color.Color) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, title)
	for _, t := range totals {
		fmt.Fprintf(w, "  %-24s %8s", t.Key, formatHM(t.Duration))
		if sum.ShowEstimation {
			est.Fprintf(w, " %8s", formatHM(t.Estimated))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
