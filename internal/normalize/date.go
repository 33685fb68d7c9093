package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// SerialEpoch is day zero of spreadsheet serial dates. Serial 1 is 1899-12-31;
// the epoch absorbs the 1900 leap-year bug so modern serials line up.
var SerialEpoch = civil.Date{Year: 1899, Month: time.December, Day: 30}

var (
	serialPattern  = regexp.MustCompile(`^[0-9]{5}$`)
	quarterPattern = regexp.MustCompile(`(?i)^Q([1-4])[\s-]?([0-9]{2,4})`)
)

// Layouts tried in order once the serial and quarter rules miss.
// Numeric fields accept one or two digits like strptime does.
const (
	layoutISO       = "2006-1-2"
	layoutUS        = "1/2/2006"
	layoutDayFirst  = "2/1/2006"
	layoutDayMonAbb = "2-Jan-2006"
	layoutMonYear   = "Jan 2006"
	layoutMonthYear = "January 2006"
	layoutDashDMY   = "2-1-2006"
	layoutDotDMY    = "2.1.2006"
)

func (n Normalizer) dateLayouts() []string {
	us, eu := layoutUS, layoutDayFirst
	if n.DateOrder == DayFirst {
		us, eu = eu, us
	}
	return []string{layoutISO, us, eu, layoutDayMonAbb, layoutMonYear, layoutMonthYear, layoutDashDMY, layoutDotDMY}
}

// ParseDate converts a spreadsheet serial ("44927"), a quarter ("Q3-24") or
// one of the supported explicit layouts into a calendar date.
func (n Normalizer) ParseDate(s string) (civil.Date, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return civil.Date{}, false
	}
	if serialPattern.MatchString(v) {
		days, err := strconv.Atoi(v)
		if err != nil {
			return civil.Date{}, false
		}
		return SerialEpoch.AddDays(days), true
	}
	if m := quarterPattern.FindStringSubmatch(v); m != nil {
		return quarterStart(m[1], m[2])
	}
	for _, layout := range n.dateLayouts() {
		if t, err := time.Parse(layout, v); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// quarterStart maps Q1..Q4 to the first day of the quarter. Two-digit years
// are taken as 20YY.
func quarterStart(q, y string) (civil.Date, bool) {
	quarter, err := strconv.Atoi(q)
	if err != nil {
		return civil.Date{}, false
	}
	if len(y) == 2 {
		y = "20" + y
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return civil.Date{}, false
	}
	return civil.Date{Year: year, Month: time.Month((quarter-1)*3 + 1), Day: 1}, true
}

// parseDateLiteral handles cells the source already typed as dates.
func parseDateLiteral(s string) (civil.Date, bool) {
	v := strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// SerialOf returns the spreadsheet serial of d.
func SerialOf(d civil.Date) int { return d.DaysSince(SerialEpoch) }
