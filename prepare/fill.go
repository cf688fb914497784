package prepare

import (
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/player"
	"github.com/YuminosukeSato/playertier/preprocessing"
)

// fill forward-fills every column in input order, then applies the missing
// policy to cells that stayed missing. It returns the surviving records,
// their 1-based input rows and the number of dropped rows.
func (p *Preparer) fill(records []player.Record) ([]player.Record, []int, int, error) {
	filled := make([]player.Record, len(records))
	copy(filled, records)

	valid := make([][]bool, len(records))
	for i := range valid {
		valid[i] = make([]bool, len(player.Columns()))
	}

	for _, col := range player.Columns() {
		cells := make([]player.Cell, len(records))
		present := make([]bool, len(records))
		for i, r := range records {
			cells[i] = r.Cell(col)
			present[i] = cells[i].Valid
		}

		out, ok := preprocessing.ForwardFill(cells, present)
		if p.missing == MissingBackfill {
			out, ok = preprocessing.BackFill(out, ok)
			if !ok[0] {
				// nothing to fill from in either direction
				return nil, nil, 0, errors.NewUnfilledValueError(col.String(), 1)
			}
		}

		for i := range out {
			out[i].Valid = ok[i]
			filled[i] = filled[i].With(col, out[i])
			valid[i][col] = ok[i]
		}
	}

	var (
		kept       []player.Record
		sourceRows []int
		dropped    int
	)
	for i, r := range filled {
		missing := firstMissing(valid[i])
		if missing < 0 {
			kept = append(kept, r)
			sourceRows = append(sourceRows, i+1)
			continue
		}
		if p.missing == MissingError {
			return nil, nil, 0, errors.NewUnfilledValueError(player.Column(missing).String(), i+1)
		}
		dropped++
	}
	return kept, sourceRows, dropped, nil
}

func firstMissing(valid []bool) int {
	for j, ok := range valid {
		if !ok {
			return j
		}
	}
	return -1
}
