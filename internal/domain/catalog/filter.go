package catalog

import "github.com/bits-and-blooms/bloom/v3"

const filterFPR = 0.001

// IDFilter is a bloom filter over known product IDs. A negative answer is
// definitive, so callers can reject requests for unknown products without a
// storage round trip; a positive answer may be a false positive and must be
// confirmed against the repository.
//
// The catalog is append-only at runtime (inventory management happens out of
// band), so a filter built at startup can only err on the safe side.
type IDFilter struct {
	filter *bloom.BloomFilter
}

// NewIDFilter builds an IDFilter from the given product IDs.
func NewIDFilter(ids []string) *IDFilter {
	n := uint(len(ids))
	if n == 0 {
		n = 1
	}
	f := bloom.NewWithEstimates(n, filterFPR)
	for _, id := range ids {
		f.AddString(id)
	}
	return &IDFilter{filter: f}
}

// MayContain reports whether the product ID might exist in the catalog.
func (f *IDFilter) MayContain(id string) bool {
	if f == nil {
		return true
	}
	return f.filter.TestString(id)
}
