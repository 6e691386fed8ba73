package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bgricker/eggstep/internal/exitcodes"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.Is(err, errStepFailed):
		fmt.Fprintln(os.Stderr, "eggstep:", err)
		return exitcodes.TestFailure
	default:
		fmt.Fprintln(os.Stderr, "eggstep:", err)
		return exitcodes.RuntimeErr
	}
}
