package dataset

import (
	"github.com/elliotchance/orderedmap/v2"
)

// CategoryIndex is a bidirectional mapping between category values and dense
// integer codes. Codes are assigned in first-seen order, strictly increasing,
// and never reused. One index is shared per training job between categorical
// feature encoding and classification target encoding, and it is persisted in
// the export manifest so predictions on new data reuse the same codes.
type CategoryIndex struct {
	codes  *orderedmap.OrderedMap[string, int]
	values []string
}

// CategoryPair is one (category, code) entry, in assignment order.
type CategoryPair struct {
	Category string `json:"category"`
	Code     int    `json:"code"`
}

func NewCategoryIndex() *CategoryIndex {
	return &CategoryIndex{
		codes: orderedmap.NewOrderedMap[string, int](),
	}
}

// Assign returns the code for the value, allocating the next code if the
// value has never been seen.
func (c *CategoryIndex) Assign(value string) int {
	if code, ok := c.codes.Get(value); ok {
		return code
	}
	code := len(c.values)
	c.codes.Set(value, code)
	c.values = append(c.values, value)
	return code
}

// Code looks up the code for a value without assigning one.
func (c *CategoryIndex) Code(value string) (int, bool) {
	code, ok := c.codes.Get(value)
	return code, ok
}

// Value is the inverse of Code for every code ever issued.
func (c *CategoryIndex) Value(code int) (string, bool) {
	if code < 0 || code >= len(c.values) {
		return "", false
	}
	return c.values[code], true
}

func (c *CategoryIndex) Len() int {
	return len(c.values)
}

// Pairs lists all (category, code) entries in assignment order.
func (c *CategoryIndex) Pairs() []CategoryPair {
	pairs := make([]CategoryPair, 0, c.codes.Len())
	for el := c.codes.Front(); el != nil; el = el.Next() {
		pairs = append(pairs, CategoryPair{Category: el.Key, Code: el.Value})
	}
	return pairs
}
