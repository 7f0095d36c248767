package service

import "time"

const dayLayout = "2006-01-02"

// ReconcileBufferDays filters records fetched over a window extended by one
// day on each side back down to the requested window. Upstream ledgers smear
// records across day boundaries, so:
//
//   - main-period records whose document number also shows up on the day
//     after the window are dropped wholesale: a document split across the
//     end boundary belongs to the later period and the main-period view of
//     it is incomplete;
//   - records from the day before the window are pulled in only when their
//     document number appears in the main period AND at least twice within
//     that buffer day itself, guarding against an unrelated prior-day record
//     sharing an incidental document number.
//
// The prev/next rules are deliberately asymmetric; they reproduce observed
// upstream behavior and must not be "fixed" independently.
func ReconcileBufferDays[T any](records []T, start, end time.Time, day func(T) string, doc func(T) string) []T {
	var (
		startStr = start.Format(dayLayout)
		endStr   = end.Format(dayLayout)
		prevStr  = start.AddDate(0, 0, -1).Format(dayLayout)
		nextStr  = end.AddDate(0, 0, 1).Format(dayLayout)
	)

	var mainPeriod, prevBuffer, nextBuffer []T
	for _, r := range records {
		switch d := day(r); {
		case d == prevStr:
			prevBuffer = append(prevBuffer, r)
		case d == nextStr:
			nextBuffer = append(nextBuffer, r)
		case d >= startStr && d <= endStr:
			mainPeriod = append(mainPeriod, r)
		}
	}

	mainDocs := make(map[string]struct{}, len(mainPeriod))
	for _, r := range mainPeriod {
		mainDocs[doc(r)] = struct{}{}
	}
	nextDocs := make(map[string]struct{}, len(nextBuffer))
	for _, r := range nextBuffer {
		nextDocs[doc(r)] = struct{}{}
	}
	prevCounts := make(map[string]int, len(prevBuffer))
	for _, r := range prevBuffer {
		prevCounts[doc(r)]++
	}

	result := make([]T, 0, len(mainPeriod)+len(prevBuffer))
	for _, r := range mainPeriod {
		if _, split := nextDocs[doc(r)]; split {
			continue
		}
		result = append(result, r)
	}
	for _, r := range prevBuffer {
		d := doc(r)
		if _, inMain := mainDocs[d]; inMain && prevCounts[d] >= 2 {
			result = append(result, r)
		}
	}
	return result
}
