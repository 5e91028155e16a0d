package indexer

import "fmt"

// IndexRange is a half-open range [Start, End) of message indices.
type IndexRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of indices in the range.
func (r IndexRange) Len() uint64 {
	return r.End - r.Start
}

// SplitRange splits [start, end) into consecutive batches of at most batchSize indices.
func SplitRange(start, end, batchSize uint64) ([]IndexRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if end < start {
		return nil, fmt.Errorf("end index must be >= start index")
	}

	ranges := make([]IndexRange, 0, (end-start+batchSize-1)/batchSize)
	for from := start; from < end; {
		to := end
		if end-from > batchSize {
			to = from + batchSize
		}
		ranges = append(ranges, IndexRange{Start: from, End: to})
		from = to
	}

	return ranges, nil
}
