package tree

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// EncodeClasses reads integer class labels from the first column of y and
// returns the sorted distinct labels and each row's index into them.
// Non-integer labels are rejected.
func EncodeClasses(y mat.Matrix) (classes []int, indices []int, err error) {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	raw := make([]int, rows)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, nil, errors.NewValidationError("y", "class labels must be integers", v)
		}
		raw[i] = int(v)
		if !seen[raw[i]] {
			seen[raw[i]] = true
			classes = append(classes, raw[i])
		}
	}
	sort.Ints(classes)

	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	indices = make([]int, rows)
	for i, v := range raw {
		indices[i] = pos[v]
	}
	return classes, indices, nil
}

// LabelsFromProba returns a column of class labels taking the most probable
// column of each row. Ties go to the lowest class.
func LabelsFromProba(proba mat.Matrix, classes []int) *mat.Dense {
	rows, cols := proba.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for j := 1; j < cols; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, float64(classes[best]))
	}
	return out
}
