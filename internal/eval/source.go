// Package eval wires ingestion, matching and metrics into the trio,
// replicate, somatic and tumor-specific workflows.
package eval

import (
	"runtime"
	"sync"

	"github.com/inodb/sveval/internal/sv"
)

// Source loads a callset from a path.
type Source interface {
	Load(path string) (*sv.Callset, error)
}

// LoadItem is one file queued for loading.
type LoadItem struct {
	Seq  int
	Path string
}

// LoadResult holds the callset loaded for a single LoadItem.
type LoadResult struct {
	Seq     int
	Path    string
	Callset *sv.Callset
	Err     error
}

// ParallelLoad loads paths using a pool of workers.
// Results arrive in completion order; use OrderedCollect to consume them in
// argument order. If workers is 0, runtime.NumCPU() is used.
func ParallelLoad(src Source, paths []string, workers int) <-chan LoadResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(paths)))

	items := make(chan LoadItem, len(paths))
	for i, p := range paths {
		items <- LoadItem{Seq: i, Path: p}
	}
	close(items)

	results := make(chan LoadResult, len(paths))

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				cs, err := src.Load(item.Path)
				results <- LoadResult{
					Seq:     item.Seq,
					Path:    item.Path,
					Callset: cs,
					Err:     err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands each loaded callset to fn in argument order, so a
// file that finishes early waits for the files listed before it. The first
// error returned by fn stops delivery; loads still running finish into the
// buffered channel and are discarded.
func OrderedCollect(results <-chan LoadResult, fn func(LoadResult) error) error {
	early := make(map[int]LoadResult)
	next := 0

	for r := range results {
		early[r.Seq] = r
		for ready, ok := early[next]; ok; ready, ok = early[next] {
			delete(early, next)
			next++
			if err := fn(ready); err != nil {
				return err
			}
		}
	}

	return nil
}
