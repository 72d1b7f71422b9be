// Package relay moves bytes both ways between two endpoints until either
// side closes or the context is canceled.
package relay

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Bidirectional copies left-to-right and right-to-left concurrently. When one
// direction finishes, or the context is canceled, both endpoints are closed
// to unblock the other direction. The first copy error is returned; a clean
// EOF on either side is not an error.
func Bidirectional(ctx context.Context, left, right io.ReadWriteCloser) error {
	g, gctx := errgroup.WithContext(ctx)

	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = left.Close()
			_ = right.Close()
		})
	}
	defer closeBoth()

	g.Go(func() error {
		defer closeBoth()
		_, err := io.Copy(left, right)
		return err
	})

	g.Go(func() error {
		defer closeBoth()
		_, err := io.Copy(right, left)
		return err
	})

	// Unblock both copies if the caller gives up first.
	g.Go(func() error {
		<-gctx.Done()
		closeBoth()
		return nil
	})

	return g.Wait()
}
