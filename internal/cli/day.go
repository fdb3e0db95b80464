package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/reconcile"
	"github.com/sadopc/worklog/internal/tracker"
)

var rowFlags []string

var dayCmd = &cobra.Command{
	Use:   "day YYYY-MM-DD",
	Short: "Print the intervals of a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runDay,
}

var saveDayCmd = &cobra.Command{
	Use:   "save-day YYYY-MM-DD",
	Short: "Replace the intervals of a day",
	Long: `Replace every interval starting on the given day with the rows passed
via --row. Rows are START,END[,TAGS] with times as HH:MM; 24:00 ends the day.
Passing no rows clears the day.`,
	Example: `  worklog save-day 2024-06-05 --row "09:00,12:30,work, review" --row "13:30,17:00,work"
  worklog save-day today`,
	Args: cobra.ExactArgs(1),
	RunE: runSaveDay,
}

func init() {
	saveDayCmd.Flags().StringArrayVarP(&rowFlags, "row", "r", nil, "Row as START,END[,TAGS] (repeatable)")

	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(saveDayCmd)
}

func runDay(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	day, err := parseDay(args[0], s.svc.Now())
	if err != nil {
		return err
	}
	rows, open, err := s.svc.Day(day)
	if err != nil {
		return err
	}
	printRows(cmd.OutOrStdout(), day, rows, open)
	return nil
}

func runSaveDay(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	day, err := parseDay(args[0], s.svc.Now())
	if err != nil {
		return err
	}
	rows := make([]reconcile.Row, 0, len(rowFlags))
	for _, f := range rowFlags {
		row, err := parseRow(f)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	res, err := s.svc.SaveDay(day, rows)
	if errors.Is(err, tracker.ErrDayHasActiveTracker) {
		color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Stop the active tracker before editing this day.")
		return err
	}
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Saved %s: %d interval(s) in %s\n",
		res.Day.Format(dayLayout), countOnDay(res), res.Period)
	return nil
}

func countOnDay(res reconcile.Result) int {
	n := 0
	for _, iv := range res.Intervals {
		if interval.SameDay(iv.Start, res.Day) {
			n++
		}
	}
	return n
}

func printRows(w io.Writer, day time.Time, rows []reconcile.Row, open bool) {
	cyan := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.FgHiBlack)

	cyan.Fprintln(w, day.Format("Monday, 2 January 2006"))
	if len(rows) == 0 {
		muted.Fprintln(w, "No intervals.")
		return
	}
	for _, r := range rows {
		end := r.End
		if end == "" {
			end = "running"
		}
		fmt.Fprintf(w, "  %s - %-7s %s\n", r.Start, end, r.Tags)
	}
	if open {
		color.New(color.FgYellow).Fprintln(w, "The active tracker started on this day; stop it before editing.")
	}
}
