package masks

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"

	"datapipe/internal/logging"
	"datapipe/internal/movegraph"
	"datapipe/internal/services"
)

// Options controls the test split.
type Options struct {
	TestSplit       float64
	Seed            uint64
	WithReplacement bool
}

// Masks holds one boolean per node id for each split.
type Masks struct {
	Train []bool
	Val   []bool
	Test  []bool
}

// Counts returns the number of true entries per split.
func (m Masks) Counts() (train, val, test int) {
	return countTrue(m.Train), countTrue(m.Val), countTrue(m.Test)
}

// Check verifies the three masks have equal length n and every index is in
// exactly one of them.
func (m Masks) Check() error {
	n := len(m.Train)
	if len(m.Val) != n || len(m.Test) != n {
		return services.Wrap(services.ErrInvariant, "masks", "check partition",
			fmt.Sprintf("mask lengths differ: train=%d val=%d test=%d", n, len(m.Val), len(m.Test)), nil)
	}
	for i := range n {
		members := 0
		for _, mask := range [][]bool{m.Train, m.Val, m.Test} {
			if mask[i] {
				members++
			}
		}
		if members != 1 {
			return services.Wrap(services.ErrInvariant, "masks", "check partition",
				fmt.Sprintf("node %d is in %d masks", i, members), nil)
		}
	}
	train, val, test := m.Counts()
	if train+val+test != n {
		return services.Wrap(services.ErrInvariant, "masks", "check partition",
			fmt.Sprintf("train=%d val=%d test=%d does not sum to %d", train, val, test, n), nil)
	}
	return nil
}

// Result describes a generated partition.
type Result struct {
	Masks         Masks
	Components    int
	LargestSize   int
	TestRequested int
	TestDelivered int
}

// Generate partitions g, which must be relabeled so node i is labelled "i".
func Generate(g *movegraph.Graph, opts Options, logger *slog.Logger) (*Result, error) {
	logger = logging.NewComponentLogger(logger, "masks")
	n := g.Len()
	for i := range n {
		if g.Label(i) != strconv.Itoa(i) {
			return nil, services.Wrap(services.ErrDataIntegrity, "masks", "check labels",
				fmt.Sprintf("node %d is labelled %q; relabel the graph first", i, g.Label(i)), nil)
		}
	}

	m := Masks{Train: make([]bool, n), Val: make([]bool, n), Test: make([]bool, n)}
	components := movegraph.Components(g)
	res := &Result{Components: len(components)}
	if largest := movegraph.Largest(components); largest >= 0 {
		res.LargestSize = len(components[largest])
		for _, node := range components[largest] {
			m.Train[node] = true
		}
	}

	var pool []int
	for i := range n {
		if !m.Train[i] {
			m.Val[i] = true
			pool = append(pool, i)
		}
	}

	if opts.TestSplit > 0 {
		res.TestRequested = int(math.Floor(opts.TestSplit * float64(n)))
		rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
		var drawn []int
		if opts.WithReplacement {
			drawn = sampleWithReplacement(rng, pool, res.TestRequested)
		} else {
			if res.TestRequested > len(pool) {
				logging.WarnWithContext(logger, "test split larger than validation pool", "test_split_capped",
					logging.Int("requested", res.TestRequested),
					logging.Int("pool", len(pool)),
					logging.String(logging.FieldErrorHint, "lower dataset.test_split or accept a smaller test set"),
					logging.String(logging.FieldImpact, "test mask holds the whole validation pool"),
				)
			}
			drawn = sampleWithoutReplacement(rng, pool, res.TestRequested)
		}
		for _, node := range drawn {
			m.Val[node] = false
			m.Test[node] = true
		}
	}
	_, _, res.TestDelivered = m.Counts()
	if opts.WithReplacement && res.TestDelivered < res.TestRequested {
		logger.Info("duplicate draws shrank test split",
			logging.Int("requested", res.TestRequested),
			logging.Int("delivered", res.TestDelivered),
		)
	}

	if err := m.Check(); err != nil {
		return nil, err
	}
	res.Masks = m
	train, val, test := m.Counts()
	logger.Info("masks generated",
		logging.Int("nodes", n),
		logging.Int("components", res.Components),
		logging.Int("train", train),
		logging.Int("val", val),
		logging.Int("test", test),
	)
	return res, nil
}

// sampleWithoutReplacement returns up to k distinct pool entries using a
// partial Fisher-Yates shuffle over a copy of pool.
func sampleWithoutReplacement(rng *rand.Rand, pool []int, k int) []int {
	if k > len(pool) {
		k = len(pool)
	}
	work := append([]int(nil), pool...)
	for i := range k {
		j := i + rng.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:k]
}

// sampleWithReplacement draws k pool entries independently; duplicates
// collapse when applied to a mask.
func sampleWithReplacement(rng *rand.Rand, pool []int, k int) []int {
	if len(pool) == 0 {
		return nil
	}
	out := make([]int, k)
	for i := range out {
		out[i] = pool[rng.IntN(len(pool))]
	}
	return out
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}
