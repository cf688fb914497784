package preprocessing

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TrainTestSplit draws one seeded permutation of n row indices and returns
// the train and test rows. The test side takes the first ceil(testSize*n)
// entries of the permutation, so the same seed and n always produce the
// same partition.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest >= n {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			"need at least one train and one test row")
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}

// SelectRows copies the given rows of m, in order, into a new matrix.
func SelectRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	if len(rows) == 0 || c == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}

// SelectInts returns values[rows[i]] for each i.
func SelectInts(values []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}
