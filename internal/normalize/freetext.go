package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

var (
	acuLine  = regexp.MustCompile(`^\d+\.?\d*$`)
	dateLine = regexp.MustCompile(`^[A-Za-z]+ \d{1,2}, \d{4}$`)
)

// headerLine reports lines that are column labels from the copied table,
// skipped unconditionally in both parsers.
func headerLine(line string) bool {
	switch strings.ToLower(line) {
	case "session", "created at", "acus used", "":
		return true
	}
	return false
}

type textState int

const (
	awaitingName textState = iota
	awaitingDate
	awaitingACU
)

// pending is an in-progress record; it is only emitted once all three
// fields have been seen.
type pending struct {
	name    string
	date    string
	acu     float64
	hasName bool
	hasDate bool
	hasACU  bool
}

func (p *pending) complete() bool {
	return p.hasName && p.hasDate && p.hasACU
}

func (p *pending) session() domain.UsageSession {
	date, _ := ParseDate(p.date)
	return domain.UsageSession{
		SessionName: p.name,
		CreatedAt:   p.date,
		ACUsUsed:    p.acu,
		Date:        date,
	}
}

// ParseFreeTextSessions walks a line-oriented usage-history dump through a
// small state machine. A literal "view session" line is the record
// separator: it flushes the current record (only when complete) and
// resets. Session names may wrap onto multiple lines; while a date is
// awaited, any line not matching the date shape is treated as a
// continuation of the name.
func ParseFreeTextSessions(text string) ([]domain.UsageSession, []domain.ParseWarning) {
	var (
		sessions []domain.UsageSession
		warnings []domain.ParseWarning
		current  pending
		state    = awaitingName
	)

	flush := func() {
		if current.complete() {
			sessions = append(sessions, current.session())
		} else if current.hasName {
			warnings = append(warnings, domain.ParseWarning{
				Field:  "session",
				Value:  current.name,
				Reason: "incomplete record dropped at separator",
			})
		}
		current = pending{}
		state = awaitingName
	}

	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimSpace(raw)
		if headerLine(line) {
			continue
		}
		if strings.Contains(strings.ToLower(line), "view session") {
			flush()
			continue
		}

		switch state {
		case awaitingName:
			current = pending{name: line, hasName: true}
			state = awaitingDate
		case awaitingDate:
			if dateLine.MatchString(line) {
				current.date = line
				current.hasDate = true
				state = awaitingACU
			} else {
				current.name += " " + line
			}
		case awaitingACU:
			if acuLine.MatchString(line) {
				current.acu = parseACU(line, &warnings)
				current.hasACU = true
			} else if dateLine.MatchString(line) {
				// A second date before the ACU closes out supersedes
				// the first one.
				current.date = line
			}
		}
	}
	flush()

	return sessions, warnings
}

// ParseStructuredSessions is the simpler variant without the separator
// line: name, date, ACU strictly in sequence, a record closing as soon as
// its ACU line is seen. It is tried when ParseFreeTextSessions yields
// nothing.
func ParseStructuredSessions(text string) ([]domain.UsageSession, []domain.ParseWarning) {
	var (
		sessions []domain.UsageSession
		warnings []domain.ParseWarning
		current  *pending
	)

	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimSpace(raw)
		if headerLine(line) {
			continue
		}

		switch {
		case current == nil:
			current = &pending{name: line, hasName: true}
		case !current.hasDate:
			if dateLine.MatchString(line) {
				current.date = line
				current.hasDate = true
			} else {
				current.name += " " + line
			}
		default:
			if acuLine.MatchString(line) {
				current.acu = parseACU(line, &warnings)
				current.hasACU = true
				sessions = append(sessions, current.session())
				current = nil
			}
		}
	}

	return sessions, warnings
}

// ParseUsageText runs the separator-aware parser first and falls back to
// the structured variant when it finds no records at all.
func ParseUsageText(text string) ([]domain.UsageSession, []domain.ParseWarning) {
	sessions, warnings := ParseFreeTextSessions(text)
	if len(sessions) == 0 {
		return ParseStructuredSessions(text)
	}
	return sessions, warnings
}

// parseACU coerces an ACU value to a float. Unparseable values default to
// zero with a warning; they never fail the batch.
func parseACU(s string, warnings *[]domain.ParseWarning) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*warnings = append(*warnings, domain.ParseWarning{
			Field:  "acus_used",
			Value:  s,
			Reason: "not a number, defaulting to 0",
		})
		return 0
	}
	return v
}
