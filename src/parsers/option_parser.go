// src/parsers/option_parser.go
package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelbook/backend/src/models"
)

// optionPattern is one accepted description format. Patterns are tried in order
// and the first one that matches owns every extracted field.
type optionPattern struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string) (models.OptionIdentity, bool)
}

var (
	// e.g. "XYZ Jan 17 '25 $10 Call"
	legacyOptionRe = regexp.MustCompile(`(?i)(?:^|\s)([A-Z][A-Z0-9.\-]*)\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2})\s+'(\d{2})\s+\$(\d+(?:\.\d+)?)\s+(Call|Put)\b`)
	// e.g. "CALL XYZ 01/17/25 10.00"
	tabularOptionRe = regexp.MustCompile(`(?i)(?:^|\s)(CALL|PUT)\s+([A-Z][A-Z0-9.\-]*)\s+(\d{1,2})/(\d{1,2})/(\d{2})\s+\$?(\d+(?:\.\d+)?)(?:\s|$)`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var optionPatterns = []optionPattern{
	{name: "legacy", re: legacyOptionRe, extract: extractLegacy},
	{name: "tabular", re: tabularOptionRe, extract: extractTabular},
}

// ParseOptionIdentity extracts the contract identity from a free-text description.
// It returns false when no known format matches.
func ParseOptionIdentity(text string) (models.OptionIdentity, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.OptionIdentity{}, false
	}
	for _, p := range optionPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if id, ok := p.extract(m); ok {
			return id, true
		}
	}
	return models.OptionIdentity{}, false
}

// ParseOptionIdentityFrom tries each candidate text in turn (typically the raw
// broker symbol first, then the description).
func ParseOptionIdentityFrom(candidates ...string) (models.OptionIdentity, bool) {
	for _, c := range candidates {
		if id, ok := ParseOptionIdentity(c); ok {
			return id, true
		}
	}
	return models.OptionIdentity{}, false
}

func extractLegacy(m []string) (models.OptionIdentity, bool) {
	month, ok := monthAbbrev[strings.ToLower(m[2])]
	if !ok {
		return models.OptionIdentity{}, false
	}
	day, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[4])
	expiration, ok := calendarDate(2000+year, month, day)
	if !ok {
		return models.OptionIdentity{}, false
	}
	strike, err := decimal.NewFromString(m[5])
	if err != nil {
		return models.OptionIdentity{}, false
	}
	return models.OptionIdentity{
		Underlying: strings.ToUpper(m[1]),
		Kind:       kindFromText(m[6]),
		Strike:     strike,
		Expiration: expiration,
	}, true
}

func extractTabular(m []string) (models.OptionIdentity, bool) {
	monthNum, _ := strconv.Atoi(m[3])
	if monthNum < 1 || monthNum > 12 {
		return models.OptionIdentity{}, false
	}
	day, _ := strconv.Atoi(m[4])
	year, _ := strconv.Atoi(m[5])
	expiration, ok := calendarDate(2000+year, time.Month(monthNum), day)
	if !ok {
		return models.OptionIdentity{}, false
	}
	strike, err := decimal.NewFromString(m[6])
	if err != nil {
		return models.OptionIdentity{}, false
	}
	return models.OptionIdentity{
		Underlying: strings.ToUpper(m[2]),
		Kind:       kindFromText(m[1]),
		Strike:     strike,
		Expiration: expiration,
	}, true
}

func kindFromText(s string) models.OptionKind {
	if strings.EqualFold(s, "put") {
		return models.OptionPut
	}
	return models.OptionCall
}

// calendarDate rejects dates that time.Date would silently normalize (Feb 30).
func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
