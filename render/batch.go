package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/weiihann/benchscope/chart"
)

// RenderAll renders every spec into dir under its catalog file name. Charts
// are drawn concurrently when Options.Parallel is set. The returned paths
// are the files fully written, sorted, even when err is non-nil.
func (r *Renderer) RenderAll(ctx context.Context, specs []chart.Spec, dir string) ([]string, error) {
	if err := r.check(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if !r.opts.Parallel {
		g.SetLimit(1)
	}

	var (
		mu      sync.Mutex
		written []string
	)

	for _, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(dir, spec.FileName())
			if err := r.Render(spec, path); err != nil {
				return err
			}

			mu.Lock()
			written = append(written, path)
			mu.Unlock()

			return nil
		})
	}

	err := g.Wait()
	slices.Sort(written)

	r.logger.Info("rendered charts", "dir", dir, "written", len(written), "total", len(specs))

	return written, err
}
