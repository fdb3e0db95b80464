package interval

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ParseError reports a stored record that could not be turned into an
// Interval.
type ParseError struct {
	Line int // 1-based, 0 when parsing a single record
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: parse record %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("parse record %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads one stored record of the form
//
//	<start> - <end> # tag1 "tag with space" tag3
//
// where the end is omitted for an open interval and the tag segment is
// omitted when there are no tags.
func Parse(text string) (Interval, error) {
	line := strings.TrimSpace(text)
	if line == "" {
		return Interval{}, &ParseError{Text: text, Err: errors.New("empty record")}
	}

	head, tagText, hasTags := strings.Cut(line, "#")
	startText, endText, _ := strings.Cut(head, "-")
	startText = strings.TrimSpace(startText)
	endText = strings.TrimSpace(endText)

	start, err := parseTimestamp(startText)
	if err != nil {
		return Interval{}, &ParseError{Text: text, Err: fmt.Errorf("start: %w", err)}
	}
	iv := Interval{Start: start}

	if endText != "" {
		end, err := parseTimestamp(endText)
		if err != nil {
			return Interval{}, &ParseError{Text: text, Err: fmt.Errorf("end: %w", err)}
		}
		iv.End = &end
	}

	if hasTags {
		tags, err := parseTags(tagText)
		if err != nil {
			return Interval{}, &ParseError{Text: text, Err: fmt.Errorf("tags: %w", err)}
		}
		iv.Tags = tags
	}

	if err := iv.Valid(); err != nil {
		return Interval{}, &ParseError{Text: text, Err: err}
	}
	return iv, nil
}

// Format writes iv in the stored record form read by Parse.
func Format(iv Interval) string {
	var b strings.Builder
	b.WriteString(iv.Start.Local().Format(TimeLayout))
	if iv.End != nil {
		b.WriteString(" - ")
		b.WriteString(iv.End.Local().Format(TimeLayout))
	}
	if len(iv.Tags) > 0 {
		b.WriteString(" # ")
		for i, tag := range iv.Tags {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(quoteTag(tag))
		}
	}
	return b.String()
}

// ParseAll parses every non-blank line of a stored document. Records that
// fail to parse are left out of the result and reported together in the
// returned error, one *ParseError per record.
func ParseAll(text string) ([]Interval, error) {
	var (
		intervals []Interval
		errs      []error
	)
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		iv, err := Parse(line)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = i + 1
			}
			errs = append(errs, err)
			continue
		}
		intervals = append(intervals, iv)
	}
	return intervals, errors.Join(errs...)
}

// FormatAll serializes intervals one per line, with a trailing newline.
// An empty collection yields an empty document.
func FormatAll(intervals []Interval) string {
	if len(intervals) == 0 {
		return ""
	}
	var b strings.Builder
	for _, iv := range intervals {
		b.WriteString(Format(iv))
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseErrors unpacks the per-record errors joined by ParseAll.
func ParseErrors(err error) []*ParseError {
	if err == nil {
		return nil
	}
	var out []*ParseError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var pe *ParseError
			if errors.As(e, &pe) {
				out = append(out, pe)
			}
		}
		return out
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		out = append(out, pe)
	}
	return out
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	return time.ParseInLocation(TimeLayout, s, time.Local)
}

func parseTags(s string) ([]string, error) {
	var (
		tags []string
		rs   = []rune(s)
	)
	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) {
			i++
			continue
		}
		if rs[i] != '"' {
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) {
				j++
			}
			tags = append(tags, string(rs[i:j]))
			i = j
			continue
		}

		var b strings.Builder
		closed := false
		j := i + 1
		for j < len(rs) {
			c := rs[j]
			if c == '\\' && j+1 < len(rs) {
				switch rs[j+1] {
				case 'n':
					b.WriteByte('\n')
				case 'r':
					b.WriteByte('\r')
				default:
					b.WriteRune(rs[j+1])
				}
				j += 2
				continue
			}
			if c == '"' {
				closed = true
				j++
				break
			}
			b.WriteRune(c)
			j++
		}
		if !closed {
			return nil, fmt.Errorf("unterminated quote in %q", s)
		}
		tags = append(tags, b.String())
		i = j
	}
	return tags, nil
}

func quoteTag(tag string) string {
	if tag != "" && !strings.ContainsFunc(tag, needsQuote) {
		return tag
	}
	// Line breaks are escaped so a record stays on one line.
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(tag) + `"`
}

func needsQuote(r rune) bool {
	return unicode.IsSpace(r) || r == '"' || r == '\\'
}
