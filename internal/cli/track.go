package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/worklog/internal/interval"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/tracker"
)

var (
	startLast bool
)

var startCmd = &cobra.Command{
	Use:   "start [tag...]",
	Short: "Start tracking now",
	Long: `Open a new interval at the current time. A running interval is stopped
first. Without tags, tracker.default_tags from the configuration is used.`,
	Example: `  worklog start work "code review"
  worklog start --last`,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running interval",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running interval",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	startCmd.Flags().BoolVar(&startLast, "last", false, "Reuse the tags of the previous start")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	tags := args
	switch {
	case startLast:
		if tags, err = s.svc.LastTags(); err != nil {
			return err
		}
	case len(tags) == 0:
		tags = s.cfg.Tracker.DefaultTags
	}

	iv, err := s.svc.Start(tags)
	if err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Started %s\n", describe(iv))
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	iv, err := s.svc.Stop()
	if errors.Is(err, tracker.ErrNoActiveTracker) {
		color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Nothing is being tracked.")
		return err
	}
	if err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Stopped %s after %s\n",
		describe(iv), formatHM(iv.Duration(s.svc.Now())))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	iv, ok, err := s.svc.Active()
	if err != nil {
		return err
	}
	if !ok {
		color.New(color.FgHiBlack).Fprintln(cmd.OutOrStdout(), "Nothing is being tracked.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s for %s\n", describe(iv), formatHM(iv.Duration(s.svc.Now())))
	return nil
}

// describe names an interval by its tags and start time.
func describe(iv interval.Interval) string {
	return fmt.Sprintf("[%s] at %s", report.CombinedKey(iv.Tags), iv.Start.Format("15:04"))
}
