package domain

import "time"

// SelectLatest returns, per station id, the reading whose recorded_at is
// closest to ref. With window > 0 only readings at or after ref-window are
// candidates; window <= 0 considers everything. On equal distance the later
// reading wins, and identical timestamps keep the first in input order.
// Readings without a station id are ignored.
func SelectLatest(readings []RawReading, ref time.Time, window time.Duration) map[string]RawReading {
	var since time.Time
	if window > 0 {
		since = ref.Add(-window)
	}

	type candidate struct {
		reading  RawReading
		distance time.Duration
	}
	best := make(map[string]candidate)
	for _, r := range readings {
		if r.StationID == "" {
			continue
		}
		if window > 0 && r.RecordedAt.Before(since) {
			continue
		}
		d := absDuration(r.RecordedAt.Sub(ref))
		cur, ok := best[r.StationID]
		if !ok || d < cur.distance || (d == cur.distance && r.RecordedAt.After(cur.reading.RecordedAt)) {
			best[r.StationID] = candidate{reading: r, distance: d}
		}
	}

	out := make(map[string]RawReading, len(best))
	for id, c := range best {
		out[id] = c.reading
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
