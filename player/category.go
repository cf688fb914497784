package player

import (
	"strings"

	"github.com/YuminosukeSato/playertier/pkg/errors"
)

// Category is an engagement tier. Tiers are ordinal: Beginner < Intermediate < Pro.
type Category int

const (
	Beginner Category = iota
	Intermediate
	Pro
)

// NumCategories is the number of engagement tiers.
const NumCategories = 3

// Categories returns the tiers in ordinal order.
func Categories() []Category {
	return []Category{Beginner, Intermediate, Pro}
}

func (c Category) String() string {
	switch c {
	case Beginner:
		return "Beginner"
	case Intermediate:
		return "Intermediate"
	case Pro:
		return "Pro"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < Beginner || c > Pro {
		return nil, errors.NewValueError("Category.MarshalText", "unknown category")
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory parses a tier name, ignoring case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(s), c.String()) {
			return c, nil
		}
	}
	return 0, errors.NewValidationError("category", "must be Beginner, Intermediate or Pro", s)
}
