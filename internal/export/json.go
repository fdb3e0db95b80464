package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sadopc/worklog/internal/report"
)

func ToJSON(sum report.MonthSummary, path string) error {
	data, err := json.MarshalIndent(newDocument(sum), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
