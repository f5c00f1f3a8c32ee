package chunkstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cci-tools/odpstore/internal/core/model"
)

// FrequencyOf reads the time frequency out of a dataset id, its third
// dot-separated component.
func FrequencyOf(datasetID string) string {
	parts := strings.Split(datasetID, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// CalendarTimeRanges generates the per-granule time windows for frequencies
// that follow a calendar rule. The second return value is false for
// frequencies that require consulting the catalog, such as
// satellite-orbit-frequency.
func CalendarTimeRanges(frequency string, start, end time.Time) ([]model.TimeRange, bool) {
	var (
		this time.Time
		last time.Time
		step func(time.Time) time.Time
	)
	switch {
	case frequency == "day":
		this = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		last = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case frequency == "mon" || frequency == "month":
		this = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		last = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	case frequency == "yr" || frequency == "year":
		this = time.Date(start.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		last = time.Date(end.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
		step = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	case frequency == "climatology":
		// twelve month windows regardless of the requested years
		year := start.Year()
		ranges := make([]model.TimeRange, 0, 12)
		for m := time.January; m <= time.December; m++ {
			s := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
			ranges = append(ranges, model.TimeRange{Start: s, End: s.AddDate(0, 1, 0)})
		}
		return ranges, true
	default:
		days, ok := parseDayCount(frequency)
		if !ok {
			return nil, false
		}
		this = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		last = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, days) }
	}

	var ranges []model.TimeRange
	for this.Before(last) {
		next := step(this)
		ranges = append(ranges, model.TimeRange{Start: this, End: next})
		this = next
	}
	return ranges, true
}

// parseDayCount recognizes frequencies like "8-days" or "15-days".
func parseDayCount(frequency string) (int, bool) {
	rest, ok := strings.CutSuffix(frequency, "-days")
	if !ok {
		rest, ok = strings.CutSuffix(frequency, "-day")
		if !ok {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// intersectCoverage clamps a requested time range to the dataset's temporal
// coverage. Requests entirely outside the coverage are an error rather than
// an empty axis.
func intersectCoverage(requested, coverage model.TimeRange) (model.TimeRange, error) {
	out := requested
	if out.Start.Before(coverage.Start) {
		out.Start = coverage.Start
	}
	if coverage.End.After(coverage.Start) && out.End.After(coverage.End) {
		out.End = coverage.End
	}
	if !out.Start.Before(out.End) {
		return model.TimeRange{}, fmt.Errorf("time range %s..%s lies outside dataset coverage %s..%s",
			requested.Start.Format(time.RFC3339), requested.End.Format(time.RFC3339),
			coverage.Start.Format(time.RFC3339), coverage.End.Format(time.RFC3339))
	}
	return out, nil
}
