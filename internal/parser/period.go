package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

var (
	// "STATEMENT FROM FEB 20 TO MAR 20, 2024", "December 30, 2022 to January 31, 2023".
	periodPattern = regexp.MustCompile(`(?i)(?:STATEMENT\s+)?(?:FROM\s+)?\b([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s*(\d{4})?\s+TO\s+([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s*(\d{4})`)
	yearPattern   = regexp.MustCompile(`\b(20\d{2})\b`)
)

// ExtractPeriod finds the statement period in the page texts. When no
// period is printed it falls back to the calendar year of the first
// 4-digit year found, then to the calendar year of now; both fallbacks
// are marked provisional.
func ExtractPeriod(texts []string, now time.Time) models.Period {
	for _, text := range texts {
		for _, m := range periodPattern.FindAllStringSubmatch(text, -1) {
			if p, ok := periodFromMatch(m); ok {
				return p
			}
		}
	}

	year := now.Year()
	for _, text := range texts {
		if m := yearPattern.FindStringSubmatch(text); m != nil {
			year, _ = strconv.Atoi(m[1])
			break
		}
	}
	return models.Period{
		Start:       time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Provisional: true,
	}
}

func periodFromMatch(m []string) (models.Period, bool) {
	startMonth, ok := lookupMonth(m[1])
	if !ok {
		return models.Period{}, false
	}
	endMonth, ok := lookupMonth(m[4])
	if !ok {
		return models.Period{}, false
	}
	startDay, _ := strconv.Atoi(m[2])
	endDay, _ := strconv.Atoi(m[5])
	endYear, _ := strconv.Atoi(m[6])
	if startDay < 1 || startDay > 31 || endDay < 1 || endDay > 31 {
		return models.Period{}, false
	}

	startYear := endYear
	if m[3] != "" {
		startYear, _ = strconv.Atoi(m[3])
	} else if startMonth > endMonth {
		startYear = endYear - 1
	}

	return models.Period{
		Start: time.Date(startYear, startMonth, startDay, 0, 0, 0, 0, time.UTC),
		End:   time.Date(endYear, endMonth, endDay, 0, 0, 0, 0, time.UTC),
	}, true
}
