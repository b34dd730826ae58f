package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/apthunt/apartment-crawler/internal/utils"
)

// ParsedAttributes holds the typed attributes recovered from the free-text
// parameter panel of an ad. Nil means "not confidently determined", which is
// distinct from a false/zero value.
type ParsedAttributes struct {
	Rooms        *int
	Floor        *int
	TotalStoreys *int
	Area         *float64
	IsFurnished  *bool
	BuildingType *string
	Repair       *string
}

// Keyword sets for the Russian-language parameter labels. Labels on the
// source site are free text with inconsistent ordering, so substring
// matching with explicit rule priority is used instead of strict parsing.
// Kept as package data so the lists can be extended without touching the
// matching logic.
var (
	roomsLabelKeywords     = []string{"комнат"}
	studioValueKeywords    = []string{"студ"}
	floorLabelKeyword      = "этаж"
	totalLabelKeyword      = "этажность"
	areaLabelKeywords      = []string{"площад"}
	furnishedLabelKeywords = []string{"мебел", "обстан", "furnished"}
	furnishedYesKeywords   = []string{"меблирован", "есть мебель", "furnished", "мебель"}
	furnishedNoKeyword     = "без"
	furnishedPartKeyword   = "част"
	buildingLabelKeywords  = []string{"тип строен", "тип дома", "материал"}
	repairLabelKeywords    = []string{"ремонт"}
)

var (
	digitsRe        = regexp.MustCompile(`\d+`)
	floorOfTotalRe  = regexp.MustCompile(`(\d+)\s*(?:/|из)\s*(\d+)`)
	decimalNumberRe = regexp.MustCompile(`[\d.]+`)
)

// paramRule pairs a label predicate with an extraction step. Rules for one
// field are evaluated in order and the first matching label consumes the
// attempt, even when its value fails to parse.
type paramRule struct {
	matches func(label string) bool
	extract func(value string, out *ParsedAttributes)
}

func labelContainsAny(keywords []string) func(string) bool {
	return func(label string) bool {
		for _, kw := range keywords {
			if strings.Contains(label, kw) {
				return true
			}
		}
		return false
	}
}

// ParseParameters turns the raw parameter panel of an ad into typed
// attributes. It never fails; unparseable fields are simply left nil.
func ParseParameters(params map[string]string) ParsedAttributes {
	var out ParsedAttributes

	applyFirst(params, &out, []paramRule{{
		matches: labelContainsAny(roomsLabelKeywords),
		extract: extractRooms,
	}})

	// Floor and total storeys: a single combined "3/9" or "3 из 9" label
	// wins over separately labeled values.
	combined := false
	for label, value := range params {
		lower := utils.NormalizeLabel(label)
		if strings.Contains(lower, floorLabelKeyword) &&
			(strings.Contains(value, "/") || strings.Contains(value, "из")) {
			if m := floorOfTotalRe.FindStringSubmatch(value); m != nil {
				if floor, err := strconv.Atoi(m[1]); err == nil {
					if total, err := strconv.Atoi(m[2]); err == nil {
						out.Floor = &floor
						out.TotalStoreys = &total
					}
				}
			}
			combined = true
			break
		}
	}
	if !combined {
		applyFirst(params, &out, []paramRule{{
			matches: func(label string) bool {
				return strings.HasPrefix(strings.TrimSpace(label), floorLabelKeyword) &&
					!strings.Contains(label, totalLabelKeyword)
			},
			extract: func(value string, out *ParsedAttributes) {
				if n, ok := firstInt(value); ok {
					out.Floor = &n
				}
			},
		}})
	}
	if out.TotalStoreys == nil {
		applyFirst(params, &out, []paramRule{{
			matches: labelContainsAny([]string{totalLabelKeyword}),
			extract: func(value string, out *ParsedAttributes) {
				if n, ok := firstInt(value); ok {
					out.TotalStoreys = &n
				}
			},
		}})
	}

	applyFirst(params, &out, []paramRule{{
		matches: labelContainsAny(areaLabelKeywords),
		extract: extractArea,
	}})

	applyFirst(params, &out, []paramRule{{
		matches: labelContainsAny(furnishedLabelKeywords),
		extract: extractFurnished,
	}})

	applyFirst(params, &out, []paramRule{{
		matches: labelContainsAny(buildingLabelKeywords),
		extract: func(value string, out *ParsedAttributes) {
			v := value
			out.BuildingType = &v
		},
	}})

	applyFirst(params, &out, []paramRule{{
		matches: labelContainsAny(repairLabelKeywords),
		extract: func(value string, out *ParsedAttributes) {
			v := value
			out.Repair = &v
		},
	}})

	return out
}

func applyFirst(params map[string]string, out *ParsedAttributes, rules []paramRule) {
	for _, rule := range rules {
		for label, value := range params {
			if rule.matches(utils.NormalizeLabel(label)) {
				rule.extract(value, out)
				return
			}
		}
	}
}

func extractRooms(value string, out *ParsedAttributes) {
	if n, ok := firstInt(value); ok {
		out.Rooms = &n
		return
	}
	lower := strings.ToLower(value)
	for _, kw := range studioValueKeywords {
		if strings.Contains(lower, kw) {
			one := 1
			out.Rooms = &one
			return
		}
	}
}

func extractArea(value string, out *ParsedAttributes) {
	normalized := strings.ReplaceAll(value, ",", ".")
	if m := decimalNumberRe.FindString(normalized); m != "" {
		if area, err := strconv.ParseFloat(m, 64); err == nil {
			out.Area = &area
		}
	}
}

func extractFurnished(value string, out *ParsedAttributes) {
	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, furnishedNoKeyword):
		f := false
		out.IsFurnished = &f
	case strings.Contains(lower, furnishedPartKeyword):
		t := true
		out.IsFurnished = &t
	default:
		for _, kw := range furnishedYesKeywords {
			if strings.Contains(lower, kw) {
				t := true
				out.IsFurnished = &t
				return
			}
		}
		// Never guess false when the value is unrecognized
	}
}

func firstInt(s string) (int, bool) {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
