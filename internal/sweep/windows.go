package sweep

import (
	"fmt"
	"time"
)

// Search window encodings the TMS order search accepts.
const (
	dayMinuteLayout = "20060102 1504"
	fullLayout      = "20060102150405"
)

// relativeTimeParam formats a time in the TMS relative-day syntax:
// "t HHMM" for the reference date, "t1 HHMM" for the following day.
func relativeTimeParam(t time.Time, ref time.Time) string {
	if t.Year() == ref.Year() && t.YearDay() == ref.YearDay() {
		return fmt.Sprintf("t %s", t.Format("1504"))
	}
	return fmt.Sprintf("t1 %s", t.Format("1504"))
}

// PreShipmentWindow is the next-24h pickup window in relative-day
// syntax, evaluated in Pacific time so no US pickup is cut off early.
func PreShipmentWindow(now time.Time, lookahead time.Duration) (start, end string, err error) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return "", "", err
	}
	n := now.In(loc)
	return relativeTimeParam(n, n), relativeTimeParam(n.Add(lookahead), n), nil
}

// PrePickupWindow is the upcoming pickup window in the full date-time
// encoding, evaluated in the host's local time.
func PrePickupWindow(now time.Time, lookahead time.Duration) (start, end string) {
	return now.Format(fullLayout), now.Add(lookahead).Format(fullLayout)
}

// InTransitWindow is the trailing lookback window in day-minute
// encoding, evaluated in Central time.
func InTransitWindow(now time.Time, lookback time.Duration) (start, end string, err error) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return "", "", err
	}
	n := now.In(loc)
	return n.Add(-lookback).Format(dayMinuteLayout), n.Format(dayMinuteLayout), nil
}
