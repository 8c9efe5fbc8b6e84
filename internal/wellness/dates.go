package wellness

import "time"

const dateLayout = "2006-01-02"

// ExpandRange expande [start, end] inclusivo a una fecha por día calendario,
// ascendente. end anterior a start es InvalidRangeError.
func ExpandRange(start, end string) ([]string, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, &InvalidRangeError{Start: start, End: end, Reason: "start_date no es ISO-8601"}
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, &InvalidRangeError{Start: start, End: end, Reason: "end_date no es ISO-8601"}
	}
	if to.Before(from) {
		return nil, &InvalidRangeError{Start: start, End: end, Reason: "end_date anterior a start_date"}
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}
