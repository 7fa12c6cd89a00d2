// internal/scanner/partition.go
package scanner

import "fmt"

// Partition splits [0,total) into consecutive blocks of size.
// The last block is truncated to the remaining count.
func Partition(total, size int) ([]Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("scanner: block size must be > 0, got %d", size)
	}
	if total < 0 {
		return nil, fmt.Errorf("scanner: negative address count %d", total)
	}

	blocks := make([]Block, 0, BlockCount(total, size))
	for start, idx := 0, 0; start < total; start, idx = start+size, idx+1 {
		count := size
		if rem := total - start; rem < count {
			count = rem
		}
		blocks = append(blocks, Block{Index: idx, Start: start, Count: count})
	}
	return blocks, nil
}

// BlockCount is ceil(total/size).
func BlockCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
