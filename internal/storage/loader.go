package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// DefaultBatchSize is the number of rows per insert batch when a backend has
// no better figure.
const DefaultBatchSize = 500

// CopyFn abstracts a backend's bulk insert. Implementations insert rows
// (aligned to the table's column order) and return how many were inserted.
type CopyFn func(ctx context.Context, rows [][]any) (int64, error)

// LoadBatches slices rows into batches of batchSize and calls copyFn for each
// non-empty batch. It returns the total reported by copyFn and stops at the
// first error or context cancellation.
//
// A progress line is logged per flush when verbose is set.
func LoadBatches(ctx context.Context, table string, rows [][]any, batchSize int, verbose bool, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		batches int
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))
		n, err := copyFn(ctx, rows[lo:hi])
		total += n
		if err != nil {
			log.Printf("loader: table=%s copy failed after=%d total=%d err=%v", table, n, total, err)
			return total, err
		}
		batches++
		if verbose {
			log.Printf("loader: table=%s batch #%d inserted=%d total_inserted=%d elapsed=%s",
				table, batches, n, total, time.Since(start).Truncate(time.Millisecond))
		}
	}
	return total, nil
}
