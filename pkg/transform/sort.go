package transform

import (
	"errors"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/araddon/dateparse"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// ErrUnsortable is returned by Sort when the input holds objects or arrays.
var ErrUnsortable = errors.New("cannot sort objects or arrays")

// SortMode selects the ordering applied by Sort.
type SortMode string

// Sort modes. Any other value, including the empty string, auto-detects.
const (
	SortAuto    SortMode = "auto"
	SortNumeric SortMode = "numeric"
	SortLex     SortMode = "lex"
	SortDate    SortMode = "date"
)

// maxTime is the largest absolute timestamp, in milliseconds, a JavaScript
// Date can hold.
const maxTime = 8.64e15

// ParseSortMode maps a mode name onto a SortMode. Unknown names yield SortAuto.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortNumeric, SortLex, SortDate:
		return m
	}
	return SortAuto
}

// Sort returns a sorted copy of arr. Elements may be numbers, strings,
// booleans or null; any object or array element fails with ErrUnsortable.
//
// SortNumeric orders by numeric coercion, SortLex by the UTF-16 code units of
// each element's string form and SortDate by timestamp. SortAuto picks a mode
// with DetectSortMode. Pairs that cannot be ordered (NaN on either side) keep
// their input order.
func Sort(arr []jsonvalue.Value, mode SortMode) ([]jsonvalue.Value, error) {
	for _, v := range arr {
		if v.IsArray() || v.IsPlainObject() {
			return nil, ErrUnsortable
		}
	}

	switch mode {
	case SortNumeric, SortLex, SortDate:
	default:
		mode = DetectSortMode(arr)
	}

	switch mode {
	case SortNumeric:
		return sortByNumber(arr, jsonvalue.ToNumber), nil
	case SortDate:
		return sortByNumber(arr, Timestamp), nil
	default:
		return sortByString(arr), nil
	}
}

// DetectSortMode picks the mode Sort uses when none is given: numeric when
// every element is a number, date when every element is a string that parses
// as a date, and lex otherwise.
func DetectSortMode(arr []jsonvalue.Value) SortMode {
	allNumbers, allStrings, allDates := true, true, true
	for _, v := range arr {
		switch v.Kind() {
		case jsonvalue.KindNumber:
			allStrings, allDates = false, false
		case jsonvalue.KindString:
			allNumbers = false
			if allDates && math.IsNaN(parseDate(v.AsString())) {
				allDates = false
			}
		default:
			allNumbers, allStrings, allDates = false, false, false
		}
	}

	switch {
	case allNumbers:
		return SortNumeric
	case allStrings && allDates:
		return SortDate
	default:
		return SortLex
	}
}

// Timestamp converts v into epoch milliseconds the way the JavaScript Date
// constructor does: strings are parsed as dates in UTC, numbers are taken as
// milliseconds, booleans are 1 or 0 and null is 0. Anything unparsable is NaN.
func Timestamp(v jsonvalue.Value) float64 {
	switch v.Kind() {
	case jsonvalue.KindString:
		return parseDate(v.AsString())
	case jsonvalue.KindNumber, jsonvalue.KindBool, jsonvalue.KindNull:
		return clipTime(jsonvalue.ToNumber(v))
	default:
		return math.NaN()
	}
}

func parseDate(s string) float64 {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return math.NaN()
	}
	return clipTime(float64(t.UnixMilli()))
}

func clipTime(ms float64) float64 {
	if math.IsNaN(ms) || math.Abs(ms) > maxTime {
		return math.NaN()
	}
	return math.Trunc(ms) + 0
}

type numberKey struct {
	v   jsonvalue.Value
	key float64
}

func sortByNumber(arr []jsonvalue.Value, keyOf func(jsonvalue.Value) float64) []jsonvalue.Value {
	keyed := make([]numberKey, len(arr))
	for i, v := range arr {
		keyed[i] = numberKey{v: v, key: keyOf(v)}
	}
	slices.SortStableFunc(keyed, func(a, b numberKey) int {
		d := a.key - b.key
		switch {
		case d < 0:
			return -1
		case d > 0:
			return 1
		default:
			return 0
		}
	})

	out := make([]jsonvalue.Value, len(keyed))
	for i, k := range keyed {
		out[i] = k.v
	}
	return out
}

type stringKey struct {
	v   jsonvalue.Value
	key []uint16
}

func sortByString(arr []jsonvalue.Value) []jsonvalue.Value {
	keyed := make([]stringKey, len(arr))
	for i, v := range arr {
		keyed[i] = stringKey{v: v, key: utf16.Encode([]rune(jsonvalue.ToString(v)))}
	}
	slices.SortStableFunc(keyed, func(a, b stringKey) int {
		return slices.Compare(a.key, b.key)
	})

	out := make([]jsonvalue.Value, len(keyed))
	for i, k := range keyed {
		out[i] = k.v
	}
	return out
}
