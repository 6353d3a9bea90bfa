package logs

import (
	"regexp"
	"strings"
	"time"
)

// Record is one raw log record: a header line plus any continuation lines
// (stack traces etc.) that followed it.
type Record struct {
	Timestamp       time.Time
	RawTimestamp    string
	Environment     string
	Level           string
	Message         string
	AdditionalLines []string
	LineNumber      int // 1-based line of the header in the source
}

// FullContent returns the message joined with its continuation lines.
func (r Record) FullContent() string {
	if len(r.AdditionalLines) == 0 {
		return r.Message
	}
	return r.Message + "\n" + strings.Join(r.AdditionalLines, "\n")
}

// headerRe matches lines like:
//
//	[2025-09-01 19:11:08] Produccion.ERROR: Error al crear visita
var headerRe = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] (\w+)\.(\w+): (.+)$`)

func cleanContent(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Parse scans the raw file content into records. A header line starts a new
// record, finalizing any record in progress; non-matching non-blank lines
// attach to the open record; blank lines are skipped. A header whose
// timestamp fails to parse is kept as a continuation line rather than
// aborting the batch.
func Parse(content string) []Record {
	lines := strings.Split(cleanContent(content), "\n")

	var records []Record
	var current *Record

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if m != nil {
			ts, err := time.ParseInLocation("2006-01-02 15:04:05", m[1], time.Local)
			if err == nil {
				if current != nil {
					records = append(records, *current)
				}
				current = &Record{
					Timestamp:    ts,
					RawTimestamp: m[1],
					Environment:  m[2],
					Level:        m[3],
					Message:      m[4],
					LineNumber:   i + 1,
				}
				continue
			}
		}
		if current != nil {
			current.AdditionalLines = append(current.AdditionalLines, line)
		}
	}
	if current != nil {
		records = append(records, *current)
	}
	return records
}
