package common

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Interrupt returns when the process gets SIGINT or SIGTERM, or `ctx` is
// done.
func Interrupt(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		return fmt.Errorf("received signal %s", sig)
	case <-ctx.Done():
		return ctx.Err()
	}
}
