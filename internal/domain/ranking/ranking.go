// Package ranking ranks race records per dam dice and computes the Bobaas
// points.
package ranking

import (
	"cmp"
	"slices"
	"time"

	"github.com/okian/damdice/internal/domain/model"
)

// Bobaas defaults: every paddler starts on 225 and loses cap-score points for
// each race placed better than the cap.
const (
	DefaultBaseline = 225
	DefaultCap      = 15
)

// Partition splits records into the two category buckets. Both buckets are
// always present, possibly empty.
func Partition(records []model.RaceRecord) map[model.Category][]model.RaceRecord {
	out := make(map[model.Category][]model.RaceRecord, 2)
	for _, c := range model.Categories() {
		out[c] = []model.RaceRecord{}
	}
	for _, r := range records {
		out[r.Category] = append(out[r.Category], r)
	}
	return out
}

// Sort returns a copy ordered by race date, then time, then paddler. The
// order is for display; ranks do not depend on it.
func Sort(records []model.RaceRecord) []model.RaceRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.RaceRecord) int {
		if c := a.Race.Compare(b.Race); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Duration, b.Duration); c != 0 {
			return c
		}
		return a.Paddler.Compare(b.Paddler)
	})
	return out
}

type entryKey struct {
	paddler  model.Paddler
	race     string
	category model.Category
}

// KeepFastest collapses repeated submissions by the same paddler for the
// same race and category to the fastest time. The earliest row wins a tie.
// Input order is preserved for kept records.
func KeepFastest(records []model.RaceRecord) (kept, dropped []model.RaceRecord) {
	best := make(map[entryKey]int, len(records))
	for i, r := range records {
		k := entryKey{paddler: r.Paddler, race: r.Race.Key(), category: r.Category}
		j, seen := best[k]
		if !seen || r.Duration < records[j].Duration {
			best[k] = i
		}
	}
	for i, r := range records {
		k := entryKey{paddler: r.Paddler, race: r.Race.Key(), category: r.Category}
		if best[k] == i {
			kept = append(kept, r)
		} else {
			dropped = append(dropped, r)
		}
	}
	return kept, dropped
}

// DenseRank assigns Rank and Score within each race date group: the fastest
// time ranks 1, equal times share a rank and no rank is skipped. A doubles
// pair that submitted the same time is tied on purpose.
func DenseRank(records []model.RaceRecord) []model.RaceRecord {
	times := make(map[string][]time.Duration)
	for _, r := range records {
		k := r.Race.Key()
		times[k] = append(times[k], r.Duration)
	}
	for k, ds := range times {
		slices.Sort(ds)
		times[k] = slices.Compact(ds)
	}

	out := slices.Clone(records)
	for i := range out {
		ds := times[out[i].Race.Key()]
		pos, _ := slices.BinarySearch(ds, out[i].Duration)
		out[i].Rank = pos + 1
		out[i].Score = Score(out[i].Rank, out[i].Doubles)
	}
	return out
}

// Score is the Bobaas score of one result: the rank, doubled for a doubles
// boat.
func Score(rank, doubles int) int {
	return rank * (1 + doubles)
}

// Total is baseline minus, for every race attended, max(0, cap - score).
// A paddler with no races keeps the full baseline.
func Total(scores []int, baseline, capScore int) int {
	total := baseline
	for _, s := range scores {
		total -= max(0, capScore-s)
	}
	return total
}
