package preprocessing

import (
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// OneHot encodes class indices as rows with a single 1 at the label's index.
func OneHot(labels []int, nClasses int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.NewModelError("OneHot", "empty data", errors.ErrEmptyData)
	}
	if nClasses <= 0 {
		return nil, errors.NewValidationError("n_classes", "must be positive", nClasses)
	}

	out := mat.NewDense(len(labels), nClasses, nil)
	for i, label := range labels {
		if label < 0 || label >= nClasses {
			return nil, errors.NewValidationError("label", "out of range for one-hot width", label)
		}
		out.Set(i, label, 1)
	}
	return out, nil
}

// ArgMaxRows returns the column index of the largest value in each row.
// Ties resolve to the lowest index.
func ArgMaxRows(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}
