package ml

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

// StratifiedSplit partitions sample indices into train and test sets so that every class is
// represented in both with the proportion testRatio. The result depends only on labels,
// testRatio and seed.
//
// A class with a single sample always goes to the training partition, and a class is never
// moved entirely into the test partition.
func StratifiedSplit(labels []int, testRatio float64, seed uint64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 || math.IsNaN(testRatio) {
		return nil, nil, goerr.Wrap(ErrInvalidSplitRatio, "cannot split", goerr.V(RatioKey, testRatio))
	}

	byClass := make(map[int][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for _, c := range classes {
		members := byClass[c]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		nTest := int(math.Round(float64(len(members)) * testRatio))
		if nTest >= len(members) {
			nTest = len(members) - 1
		}
		test = append(test, members[:nTest]...)
		train = append(train, members[nTest:]...)
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}
