package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/worklog/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the interactive app",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The app owns the terminal, so logs go to the configured file.
	s, err := openSession(nil)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info().Str("db", s.cfg.Storage.Path).Msg("Starting interactive app")

	app := tui.NewApp(s.svc, tui.Options{DefaultTags: s.cfg.Tracker.DefaultTags})
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
