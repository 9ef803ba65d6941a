// Package dates resolves the free-text month, season and year forms found
// in bibliographic metadata.
package dates

import (
	"regexp"
	"strconv"
	"strings"
)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// monthTable maps full month names, three-letter abbreviations and numeric
// forms (with and without a leading zero) to month numbers. Built once;
// immutable afterwards.
var monthTable = buildMonthTable()

func buildMonthTable() map[string]int {
	t := make(map[string]int, 48)
	for i, name := range monthNames {
		m := i + 1
		t[name] = m
		t[name[:3]] = m
		t[strconv.Itoa(m)] = m
		if m < 10 {
			t["0"+strconv.Itoa(m)] = m
		}
	}
	return t
}

// MonthNumber resolves a month name, abbreviation or numeric string to
// 1..12, or 0 if unrecognized.
func MonthNumber(s string) int {
	return monthTable[strings.ToLower(strings.TrimSpace(s))]
}

// MonthFromSeason infers a month from a free-text season field by substring
// match against month names and abbreviations ("Jan-Feb 2004" resolves to
// January). True season words carry no month and resolve to 0.
func MonthFromSeason(season string) int {
	s := strings.ToLower(season)
	for i, name := range monthNames {
		if strings.Contains(s, name[:3]) {
			return i + 1
		}
	}
	return 0
}

var yearPattern = regexp.MustCompile(`[12][0-9]{3}`)

// YearFromText scans free text for a plausible 4-digit year and returns the
// first match, or 0 if none is found.
func YearFromText(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// SingleYearFromText returns a year only when the text contains exactly one
// 4-digit year candidate, avoiding guesses on ranges like "1998-2003".
func SingleYearFromText(s string) int {
	ms := yearPattern.FindAllString(s, -1)
	if len(ms) != 1 {
		return 0
	}
	y, _ := strconv.Atoi(ms[0])
	return y
}
