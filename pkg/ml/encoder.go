package ml

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// Encoder turns an AttributeRecord into a fixed-length vector: one indicator slot per known
// category of each categorical column, followed by the numeric columns unchanged.
// A value absent from a column's CategorySet leaves all of that column's slots at zero.
type Encoder struct {
	sets    []model.CategorySet
	index   []map[string]int
	offsets []int
	numeric []types.NumericColumn
	dim     int
}

// FitEncoder learns the CategorySet of every categorical column from records.
// Categories are sorted in ascending byte order so the layout is reproducible.
// Callers must pass the training partition only.
func FitEncoder(records []model.AttributeRecord) *Encoder {
	cols := types.CategoricalColumns()
	sets := make([]model.CategorySet, len(cols))
	for i, col := range cols {
		seen := make(map[string]struct{})
		var values []string
		for idx := range records {
			v := records[idx].Categorical(col)
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		slices.Sort(values)
		sets[i] = model.CategorySet{Column: col, Categories: values}
	}

	// Built from fresh, duplicate-free sets; cannot fail
	enc, _ := NewEncoder(sets, types.NumericColumns())
	return enc
}

// NewEncoder restores an encoder from persisted category sets and numeric column order.
// The given order is used verbatim.
func NewEncoder(sets []model.CategorySet, numeric []types.NumericColumn) (*Encoder, error) {
	enc := &Encoder{
		sets:    make([]model.CategorySet, len(sets)),
		index:   make([]map[string]int, len(sets)),
		offsets: make([]int, len(sets)),
		numeric: slices.Clone(numeric),
	}

	offset := 0
	for i, cs := range sets {
		if !cs.Column.IsValid() {
			return nil, goerr.Wrap(ErrInvalidCategorySet, "unknown categorical column", goerr.V(ColumnKey, cs.Column))
		}
		idx := make(map[string]int, len(cs.Categories))
		for j, c := range cs.Categories {
			if _, ok := idx[c]; ok {
				return nil, goerr.Wrap(ErrInvalidCategorySet, "duplicate category",
					goerr.V(ColumnKey, cs.Column), goerr.V("category", c))
			}
			idx[c] = j
		}
		enc.sets[i] = model.CategorySet{Column: cs.Column, Categories: slices.Clone(cs.Categories)}
		enc.index[i] = idx
		enc.offsets[i] = offset
		offset += len(cs.Categories)
	}
	enc.dim = offset + len(numeric)

	return enc, nil
}

// Dimension returns the length of every encoded vector
func (e *Encoder) Dimension() int {
	return e.dim
}

// Encode returns the encoded vector of r. It never fails.
func (e *Encoder) Encode(r *model.AttributeRecord) []float64 {
	x := make([]float64, e.dim)
	for i, cs := range e.sets {
		if j, ok := e.index[i][r.Categorical(cs.Column)]; ok {
			x[e.offsets[i]+j] = 1
		}
	}

	base := e.dim - len(e.numeric)
	for i, col := range e.numeric {
		x[base+i] = r.Numeric(col)
	}
	return x
}

// Categories returns a copy of the CategorySet of col, or nil if the column is not encoded
func (e *Encoder) Categories(col types.CategoricalColumn) []string {
	for _, cs := range e.sets {
		if cs.Column == col {
			return slices.Clone(cs.Categories)
		}
	}
	return nil
}

// Known reports whether value is part of the CategorySet of col
func (e *Encoder) Known(col types.CategoricalColumn, value string) bool {
	for i, cs := range e.sets {
		if cs.Column == col {
			_, ok := e.index[i][value]
			return ok
		}
	}
	return false
}

// CategorySets returns a deep copy of the persisted layout
func (e *Encoder) CategorySets() []model.CategorySet {
	sets := make([]model.CategorySet, len(e.sets))
	for i, cs := range e.sets {
		sets[i] = model.CategorySet{Column: cs.Column, Categories: slices.Clone(cs.Categories)}
	}
	return sets
}

// NumericColumns returns the numeric column order
func (e *Encoder) NumericColumns() []types.NumericColumn {
	return slices.Clone(e.numeric)
}
