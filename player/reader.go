package player

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/playertier/pkg/errors"
)

// missingTokens are the cell contents read as a missing value.
var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "<na>": {},
}

// ReaderOption configures ReadCSV.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	comma    rune
	required []Column
}

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) ReaderOption {
	return func(c *readerConfig) {
		c.comma = r
	}
}

// WithRequired restricts the columns the header must contain. Columns not
// present in the header read as missing.
func WithRequired(cols ...Column) ReaderOption {
	return func(c *readerConfig) {
		c.required = cols
	}
}

// OpenCSV reads telemetry records from the delimited file at path.
func OpenCSV(path string, opts ...ReaderOption) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open telemetry file %s", path)
	}
	defer f.Close()

	return ReadCSV(f, opts...)
}

// ReadCSV reads telemetry records from delimited text with one header row.
//
// Every column of the telemetry model is required unless WithRequired says
// otherwise; a PlayerID column is
// optional and extra columns are ignored. A header missing a required column
// yields a ColumnError naming it, as does a numeric cell that does not parse.
// Empty cells and NA-style tokens become explicit missing cells.
func ReadCSV(r io.Reader, opts ...ReaderOption) ([]Record, error) {
	cfg := readerConfig{comma: ',', required: Columns()}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "telemetry file has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	indices := make(map[Column]int, numColumns)
	playerIDIndex := -1
	for i, name := range header {
		if normalizeHeader(name) == "playerid" {
			playerIDIndex = i
			continue
		}
		if col, ok := LookupColumn(name); ok {
			if _, dup := indices[col]; !dup {
				indices[col] = i
			}
		}
	}
	for _, col := range cfg.required {
		if _, ok := indices[col]; !ok {
			return nil, errors.NewMissingColumnError(col.String())
		}
	}

	var records []Record
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read row %d", row)
		}

		var rec Record
		if playerIDIndex >= 0 && playerIDIndex < len(fields) {
			rec.PlayerID = strings.TrimSpace(fields[playerIDIndex])
		}
		for col, idx := range indices {
			raw := ""
			if idx < len(fields) {
				raw = fields[idx]
			}
			cell, err := ParseCell(col, raw)
			if err != nil {
				return nil, errors.NewInvalidValueError(col.String(), row, raw, err.Error())
			}
			rec.cells[col] = cell
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseCell parses raw text as a cell of col. NA-style tokens yield Missing.
func ParseCell(col Column, raw string) (Cell, error) {
	s := strings.TrimSpace(raw)
	if _, ok := missingTokens[strings.ToLower(s)]; ok {
		return Missing, nil
	}

	switch col.Kind() {
	case Categorical:
		return TextCell(s), nil
	case Boolean:
		switch strings.ToLower(s) {
		case "true", "yes", "y":
			return NumCell(1), nil
		case "false", "no", "n":
			return NumCell(0), nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || (v != 0 && v != 1) {
			return Missing, errors.New("expected 0/1 or true/false")
		}
		return NumCell(v), nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) {
			return Missing, errors.New("expected a finite number")
		}
		return NumCell(v), nil
	}
}
