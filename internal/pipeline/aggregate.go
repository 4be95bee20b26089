package pipeline

import (
	"context"
	"hash/fnv"
	"slices"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Aggregate sums the values of in per key. Pairs are shuffled by key hash
// onto partitions goroutines; each key lands on exactly one partition, which
// owns its running sum, so no locking is needed and each key yields exactly
// one output pair. Every partition sees its keys in the order they arrive on
// in, so a single producer gets the same sums on every run.
//
// finalize, when non-nil, is applied to each completed sum. The result is
// sorted by key. Aggregate returns once in is closed or ctx is done.
func Aggregate(ctx context.Context, in <-chan KeyValue, partitions int, finalize func(float64) float64) ([]KeyValue, error) {
	if partitions < 1 {
		partitions = 1
	}

	shards := make([]chan KeyValue, partitions)
	sums := make([]map[domain.Key]float64, partitions)
	for i := range shards {
		shards[i] = make(chan KeyValue, 64)
		sums[i] = make(map[domain.Key]float64)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range shards {
		g.Go(func() error {
			for kv := range shards[i] {
				sums[i][kv.Key] += kv.Value
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, s := range shards {
				close(s)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case kv, ok := <-in:
				if !ok {
					return nil
				}
				shards[partition(kv.Key, partitions)] <- kv
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, m := range sums {
		n += len(m)
	}
	out := make([]KeyValue, 0, n)
	for _, m := range sums {
		for k, v := range m {
			if finalize != nil {
				v = finalize(v)
			}
			out = append(out, KeyValue{Key: k, Value: v})
		}
	}
	sortByKey(out)
	return out, nil
}

// partition maps a key onto one of n partitions.
func partition(k domain.Key, n int) int {
	h := fnv.New32a()
	h.Write([]byte(k.Region))
	h.Write([]byte{0})
	h.Write([]byte(k.Year))
	h.Write([]byte{0})
	h.Write([]byte(k.Month))
	return int(h.Sum32() % uint32(n))
}

func sortByKey(kvs []KeyValue) {
	slices.SortFunc(kvs, func(a, b KeyValue) int {
		switch {
		case a.Key.Less(b.Key):
			return -1
		case b.Key.Less(a.Key):
			return 1
		default:
			return 0
		}
	})
}
