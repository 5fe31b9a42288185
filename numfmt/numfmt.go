// Package numfmt classifies SpreadsheetML number formats and converts date
// serial numbers to and from [time.Time].
//
// Format codes are tokenized with [github.com/xuri/nfp]; this package only
// decides what the resulting token stream means.
package numfmt

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/nfp"

	"github.com/TsubasaBE/go-xlsx/internal/dateformat"
)

// Class is the kind of value a number format displays.
type Class int

const (
	General Class = iota
	Number
	Percent
	Text
	Date
	Time
	DateTime
	Elapsed
)

var classNames = [...]string{
	General:  "general",
	Number:   "number",
	Percent:  "percent",
	Text:     "text",
	Date:     "date",
	Time:     "time",
	DateTime: "datetime",
	Elapsed:  "elapsed",
}

func (c Class) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// IsDate reports whether cells in this class hold a date serial.
func (c Class) IsDate() bool { return c >= Date }

// Resolve returns the format code in effect for a numFmtId: code when it is
// not empty, the built-in code for id, or "General".
func Resolve(id int, code string) string {
	if code != "" {
		return code
	}
	if s, ok := dateformat.BuiltIn(id); ok {
		return s
	}
	return "General"
}

// Classify returns the class of the format numFmtId id with format code
// code.  code may be empty for built-in ids.
func Classify(id int, code string) Class {
	code = Resolve(id, code)
	switch code {
	case "General":
		return General
	case "@":
		return Text
	}

	var date, clock, elapsed, percent, digits bool
	for _, sec := range nfp.NumberFormatParser().Parse(code) {
		toks := sec.Items
		for i, tok := range toks {
			switch tok.TType {
			case nfp.TokenTypeDateTimes:
				u := strings.ToUpper(tok.TValue)
				switch {
				case u == "AM/PM" || u == "A/P":
					clock = true
				case strings.HasPrefix(u, "Y"), strings.HasPrefix(u, "D"):
					date = true
				case strings.HasPrefix(u, "H"), strings.HasPrefix(u, "S"):
					clock = true
				case strings.HasPrefix(u, "M"):
					if len(u) <= 2 && isMinute(toks, i) {
						clock = true
					} else {
						date = true
					}
				}
			case nfp.TokenTypeElapsedDateTimes:
				elapsed = true
			case nfp.TokenTypePercent:
				percent = true
			case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
				digits = true
			}
		}
	}

	switch {
	case elapsed:
		return Elapsed
	case date && clock:
		return DateTime
	case date:
		return Date
	case clock:
		return Time
	case percent:
		return Percent
	case digits:
		return Number
	}
	return General
}

// isMinute reports whether the m or mm token at i means minutes: it follows
// an hour token or precedes a seconds token.
func isMinute(toks []nfp.Token, i int) bool {
	for j := i - 1; j >= 0; j-- {
		if t := toks[j]; t.TType == nfp.TokenTypeDateTimes || t.TType == nfp.TokenTypeElapsedDateTimes {
			u := strings.ToUpper(t.TValue)
			if strings.HasPrefix(u, "H") {
				return true
			}
			break
		}
	}
	for j := i + 1; j < len(toks); j++ {
		if t := toks[j]; t.TType == nfp.TokenTypeDateTimes || t.TType == nfp.TokenTypeElapsedDateTimes {
			return strings.HasPrefix(strings.ToUpper(t.TValue), "S")
		}
	}
	return false
}

// IsDateFormat reports whether a numFmtId (and, for custom formats, its
// format code) shows a calendar date or a clock time.  The time-only
// built-in ids 18–21 are excluded: converting them to a [time.Time] is
// rarely meaningful.
func IsDateFormat(id int, code string) bool {
	if id < dateformat.FirstCustomID {
		return dateformat.IsBuiltInDateID(id) && (id < 18 || id > 21)
	}
	return Classify(id, code).IsDate()
}

// IsDateTime is IsDateFormat including the time-only built-in ids.
func IsDateTime(id int, code string) bool {
	if id < dateformat.FirstCustomID {
		return dateformat.IsBuiltInDateID(id)
	}
	return Classify(id, code).IsDate()
}

// ── serial numbers ───────────────────────────────────────────────────────────

// Excel dates reach serial 2,958,465 (9999-12-31); maxSerial is one above.
const maxSerial = 2_958_466

// offset1904 is the number of days between the two date systems' epochs.
const offset1904 = 1462

var (
	epoch1900 = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ToTime converts a date serial to a [time.Time] in UTC.
//
// In the 1900 system Excel keeps the Lotus 1-2-3 leap-year bug: serial 60 is
// the phantom 1900-02-29.  Serials from 61 on are shifted back one day;
// serial 0 is midnight on 1900-01-01.  In the 1904 system serial 0 is
// 1904-01-01 and no correction applies.
func ToTime(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, fmt.Errorf("numfmt: invalid serial %v", serial)
	}
	if serial < 0 {
		return time.Time{}, fmt.Errorf("numfmt: negative serial %v not supported", serial)
	}
	limit := float64(maxSerial)
	if date1904 {
		limit -= offset1904
	}
	if serial > limit {
		return time.Time{}, fmt.Errorf("numfmt: serial %v exceeds maximum supported value %v", serial, limit)
	}

	secs, rollover := fracSeconds(serial)
	day := int(serial) + rollover
	clock := time.Duration(secs) * time.Second

	if date1904 {
		return epoch1904.AddDate(0, 0, day).Add(clock), nil
	}
	switch {
	case day == 0:
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(clock), nil
	case day >= 61:
		return epoch1900.AddDate(0, 0, day-1).Add(clock), nil
	}
	return epoch1900.AddDate(0, 0, day).Add(clock), nil
}

// FromTime converts the wall-clock reading of t to a date serial.  It is the
// inverse of ToTime for dates from 1900-03-01 on (1904-01-01 in the 1904
// system).
func FromTime(t time.Time, date1904 bool) float64 {
	u := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	const day = float64(24 * time.Hour)
	if date1904 {
		return float64(u.Sub(epoch1904)) / day
	}
	d := float64(u.Sub(epoch1900)) / day
	if d >= 60 {
		d++
	}
	return d
}

// fracSeconds converts the fractional day of serial to whole seconds within
// the day, rounding half a second up.  When rounding reaches midnight it
// rolls over to the next day.
func fracSeconds(serial float64) (secs int64, rollover int) {
	const roundEpsilon = 1e-9
	frac := (serial - math.Trunc(serial)) + roundEpsilon
	const nanosInADay = float64(24 * 60 * 60 * 1e9)
	d := time.Duration(frac * nanosInADay)
	secs = int64(d / time.Second)
	if d%time.Second > 500*time.Millisecond {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	return secs % 86400, int(secs / 86400)
}
