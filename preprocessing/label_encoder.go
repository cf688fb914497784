package preprocessing

import (
	"github.com/YuminosukeSato/playertier/pkg/errors"
)

// LabelEncoder maps category strings to zero-based integer codes in
// first-seen order. A code, once assigned, never changes.
type LabelEncoder struct {
	// Column names the encoded column in errors.
	Column string

	classes []string
	index   map[string]int
}

// NewLabelEncoder returns an empty encoder for the named column.
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{
		Column: column,
		index:  make(map[string]int),
	}
}

// NewLabelEncoderFromClasses rebuilds an encoder from a stored class table,
// classes[i] having code i.
func NewLabelEncoderFromClasses(column string, classes []string) (*LabelEncoder, error) {
	e := NewLabelEncoder(column)
	for _, c := range classes {
		if _, dup := e.index[c]; dup {
			return nil, errors.NewValidationError(column, "duplicate class in encoding table", c)
		}
		e.Observe(c)
	}
	return e, nil
}

// Fit observes values in order, assigning codes to unseen ones.
func (e *LabelEncoder) Fit(values []string) *LabelEncoder {
	for _, v := range values {
		e.Observe(v)
	}
	return e
}

// FitTransform fits on values and returns their codes.
func (e *LabelEncoder) FitTransform(values []string) []int {
	codes := make([]int, len(values))
	for i, v := range values {
		codes[i] = e.Observe(v)
	}
	return codes
}

// Observe returns the code for v, assigning the next free code when v is new.
func (e *LabelEncoder) Observe(v string) int {
	if code, ok := e.index[v]; ok {
		return code
	}
	code := len(e.classes)
	e.classes = append(e.classes, v)
	e.index[v] = code
	return code
}

// Transform returns the code for v, or an UnseenCategoryError when v was
// never observed.
func (e *LabelEncoder) Transform(v string) (int, error) {
	code, ok := e.index[v]
	if !ok {
		return 0, errors.NewUnseenCategoryError(e.Column, v)
	}
	return code, nil
}

// Lookup returns the code for v, or sentinel when v was never observed.
func (e *LabelEncoder) Lookup(v string, sentinel int) int {
	if code, ok := e.index[v]; ok {
		return code
	}
	return sentinel
}

// InverseTransform returns the category for code.
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", errors.NewValidationError(e.Column, "code out of range", code)
	}
	return e.classes[code], nil
}

// Classes returns the categories in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len returns the number of known categories.
func (e *LabelEncoder) Len() int {
	return len(e.classes)
}
