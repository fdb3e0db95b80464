package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show stored settings and the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)

	bold.Fprintln(w, "Configuration")
	fmt.Fprintf(w, "  %-20s %s\n", "config", configPath)
	fmt.Fprintf(w, "  %-20s %s\n", "storage.path", s.cfg.Storage.Path)
	fmt.Fprintf(w, "  %-20s %s\n", "logging.level", s.cfg.Logging.Level)
	fmt.Fprintf(w, "  %-20s %s\n", "logging.file", s.cfg.Logging.File)
	fmt.Fprintf(w, "  %-20s %d\n", "cache.periods", s.cfg.Cache.Periods)
	fmt.Fprintf(w, "  %-20s %q\n", "tracker.default_tags", s.cfg.Tracker.DefaultTags)

	settings, err := s.store.ListSettings()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "Stored")
	for _, st := range settings {
		fmt.Fprintf(w, "  %-20s %s\n", st.Key, st.Value)
	}

	periods, err := s.svc.Periods()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  %-20s %d\n", "periods", len(periods))
	return nil
}
