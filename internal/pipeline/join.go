package pipeline

import (
	"fmt"
	"slices"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
)

// Joined collects, for one key, every aggregate each source contributed.
// A source with no value for the key has an empty slice.
type Joined struct {
	Key    domain.Key
	Values map[Source][]float64
}

// Complete reports whether both sources contributed to the key.
func (j Joined) Complete() bool {
	return len(j.Values[SourceRainfall]) > 0 && len(j.Values[SourceIncidence]) > 0
}

// Unzip narrows a complete group to its output row. Each source must have
// contributed exactly one value.
func (j Joined) Unzip() (domain.OutputRow, error) {
	rain, err := j.single(SourceRainfall)
	if err != nil {
		return domain.OutputRow{}, err
	}
	cases, err := j.single(SourceIncidence)
	if err != nil {
		return domain.OutputRow{}, err
	}
	return domain.OutputRow{Key: j.Key, Rainfall: rain, Cases: cases}, nil
}

func (j Joined) single(src Source) (float64, error) {
	vals := j.Values[src]
	if len(vals) != 1 {
		return 0, fmt.Errorf("%w: key %s has %d %s values", domain.ErrMultiValuedGroup, j.Key, len(vals), src)
	}
	return vals[0], nil
}

// CoGroup merges keyed inputs into one Joined per distinct key across all
// sources, sorted by key. Every named source gets an entry in Values even when
// it contributed nothing.
func CoGroup(inputs map[Source][]KeyValue) []Joined {
	sources := make([]Source, 0, len(inputs))
	for src := range inputs {
		sources = append(sources, src)
	}
	slices.Sort(sources)

	index := make(map[domain.Key]int)
	var groups []Joined
	for _, src := range sources {
		for _, kv := range inputs[src] {
			i, ok := index[kv.Key]
			if !ok {
				i = len(groups)
				index[kv.Key] = i
				values := make(map[Source][]float64, len(sources))
				for _, s := range sources {
					values[s] = nil
				}
				groups = append(groups, Joined{Key: kv.Key, Values: values})
			}
			groups[i].Values[src] = append(groups[i].Values[src], kv.Value)
		}
	}

	slices.SortFunc(groups, func(a, b Joined) int {
		switch {
		case a.Key.Less(b.Key):
			return -1
		case b.Key.Less(a.Key):
			return 1
		default:
			return 0
		}
	})
	return groups
}

// JoinStats counts what the join kept and dropped.
type JoinStats struct {
	Joined           int
	MissingRainfall  int // keys with cases but no rainfall
	MissingIncidence int // keys with rainfall but no cases
}

// Join co-groups the aggregated rainfall and incidence streams and keeps only
// the keys present in both, in key order.
func Join(rainfall, incidence []KeyValue) ([]domain.OutputRow, JoinStats, error) {
	groups := CoGroup(map[Source][]KeyValue{
		SourceRainfall:  rainfall,
		SourceIncidence: incidence,
	})

	var stats JoinStats
	rows := make([]domain.OutputRow, 0, len(groups))
	for _, g := range groups {
		if !g.Complete() {
			if len(g.Values[SourceRainfall]) == 0 {
				stats.MissingRainfall++
			} else {
				stats.MissingIncidence++
			}
			continue
		}
		row, err := g.Unzip()
		if err != nil {
			return nil, JoinStats{}, err
		}
		rows = append(rows, row)
	}
	stats.Joined = len(rows)
	return rows, stats, nil
}
