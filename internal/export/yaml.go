package export

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/worklog/internal/report"
)

func ToYAML(sum report.MonthSummary, path string) error {
	data, err := yaml.Marshal(newDocument(sum))
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write yaml file: %w", err)
	}
	return nil
}
