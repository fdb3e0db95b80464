// Package export writes month summaries to files.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/report"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name, case-insensitively. "yml" is an alias
// for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or yaml)", s)
}

// Write exports sum to path in the given format.
func Write(sum report.MonthSummary, format Format, path string) error {
	switch format {
	case FormatCSV:
		return ToCSV(sum, path)
	case FormatJSON:
		return ToJSON(sum, path)
	case FormatYAML:
		return ToYAML(sum, path)
	}
	return fmt.Errorf("unknown export format %q", format)
}

type document struct {
	ExportedAt      string     `json:"exported_at" yaml:"exported_at"`
	Month           string     `json:"month" yaml:"month"`
	Title           string     `json:"title" yaml:"title"`
	TotalSeconds    int64      `json:"total_seconds" yaml:"total_seconds"`
	Total           string     `json:"total" yaml:"total"`
	EstimationLabel string     `json:"estimation_label,omitempty" yaml:"estimation_label,omitempty"`
	EstimatedTotal  string     `json:"estimated_total,omitempty" yaml:"estimated_total,omitempty"`
	Days            []dayEntry `json:"days" yaml:"days"`
	Combined        []tagEntry `json:"combined" yaml:"combined"`
	Individual      []tagEntry `json:"individual" yaml:"individual"`
}

type dayEntry struct {
	Date     string `json:"date" yaml:"date"`
	Seconds  int64  `json:"seconds" yaml:"seconds"`
	Duration string `json:"duration" yaml:"duration"`
}

type tagEntry struct {
	Tag              string `json:"tag" yaml:"tag"`
	Seconds          int64  `json:"seconds" yaml:"seconds"`
	Duration         string `json:"duration" yaml:"duration"`
	EstimatedSeconds int64  `json:"estimated_seconds,omitempty" yaml:"estimated_seconds,omitempty"`
	Estimated        string `json:"estimated,omitempty" yaml:"estimated,omitempty"`
}

func newDocument(sum report.MonthSummary) document {
	doc := document{
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Month:        sum.Start().Format("2006-01"),
		Title:        sum.Title,
		TotalSeconds: seconds(sum.Total),
		Total:        formatDuration(sum.Total),
		Days:         []dayEntry{},
		Combined:     tagEntries(sum.Combined, sum.ShowEstimation),
		Individual:   tagEntries(sum.Individual, sum.ShowEstimation),
	}
	if sum.ShowEstimation {
		doc.EstimationLabel = sum.EstimationLabel
		doc.EstimatedTotal = formatDuration(sum.EstimatedTotal)
	}
	start := sum.Start()
	for i, d := range sum.Days {
		doc.Days = append(doc.Days, dayEntry{
			Date:     start.AddDate(0, 0, i).Format("2006-01-02"),
			Seconds:  seconds(d),
			Duration: formatDuration(d),
		})
	}
	return doc
}

func tagEntries(totals []report.TagTotal, estimated bool) []tagEntry {
	out := make([]tagEntry, 0, len(totals))
	for _, t := range totals {
		e := tagEntry{
			Tag:      t.Key,
			Seconds:  seconds(t.Duration),
			Duration: formatDuration(t.Duration),
		}
		if estimated {
			e.EstimatedSeconds = seconds(t.Estimated)
			e.Estimated = formatDuration(t.Estimated)
		}
		out = append(out, e)
	}
	return out
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func formatDuration(d time.Duration) string {
	secs := seconds(d)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
