package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/worklog/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge an interval file into the store",
	Long: `Read a text file with one interval record per line and merge it into the
matching periods. Records already stored are skipped. Nothing is written if
any line fails to parse.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export YYYY-MM",
	Short: "Export a month summary",
	Example: `  worklog export 2024-06 --format csv --out june.csv
  worklog export 2024-06 -f yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv, json or yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default worklog-YYYY-MM.<format>)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.svc.Import(string(data))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Imported %d interval(s) from %s\n", n, args[0])
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	year, month, err := parseMonth(args[0], s.svc.Now())
	if err != nil {
		return err
	}
	sum, err := s.svc.Summary(year, month)
	if err != nil {
		return err
	}

	path := exportPath(exportOut, args[0], format)
	if err := export.Write(sum, format, path); err != nil {
		return err
	}
	s.logger.Info().Str("path", path).Str("format", string(format)).Msg("Exported month")
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", sum.Title, path)
	return nil
}

func exportPath(out, month string, format export.Format) string {
	if out != "" {
		return out
	}
	return filepath.Join(".", fmt.Sprintf("worklog-%s.%s", month, format))
}
