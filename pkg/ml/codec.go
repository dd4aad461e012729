package ml

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

// LabelCodec maps risk category names to class indices.
// Indices follow the ascending lexicographic order of the names.
type LabelCodec struct {
	classes []string
	index   map[string]int
}

// FitLabelCodec builds a codec from the distinct values of labels
func FitLabelCodec(labels []string) (*LabelCodec, error) {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	return NewLabelCodec(classes)
}

// NewLabelCodec restores a codec from its ordered class names
func NewLabelCodec(classes []string) (*LabelCodec, error) {
	if len(classes) == 0 {
		return nil, goerr.Wrap(ErrTooFewClasses, "label codec needs at least one class")
	}
	if !slices.IsSorted(classes) {
		return nil, goerr.New("classes must be sorted", goerr.V(ClassesKey, classes))
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, ok := index[c]; ok {
			return nil, goerr.New("duplicate class", goerr.V(LabelKey, c))
		}
		index[c] = i
	}

	return &LabelCodec{
		classes: slices.Clone(classes),
		index:   index,
	}, nil
}

// Encode returns the class index of label
func (c *LabelCodec) Encode(label string) (int, error) {
	i, ok := c.index[label]
	if !ok {
		return 0, goerr.Wrap(ErrUnknownLabel, "label is not part of the codec", goerr.V(LabelKey, label))
	}
	return i, nil
}

// Decode returns the class name of index
func (c *LabelCodec) Decode(index int) (string, error) {
	if index < 0 || index >= len(c.classes) {
		return "", goerr.Wrap(ErrIndexOutOfRange, "cannot decode class index",
			goerr.V(IndexKey, index), goerr.V(ClassesKey, len(c.classes)))
	}
	return c.classes[index], nil
}

// Classes returns the class names ordered by index
func (c *LabelCodec) Classes() []string {
	return slices.Clone(c.classes)
}

// Len returns the number of classes
func (c *LabelCodec) Len() int {
	return len(c.classes)
}
