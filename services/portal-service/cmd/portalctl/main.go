package main

import (
	"context"
	"os"

	"github.com/md-rashed-zaman/medportal/libs/runtime"
)

func main() {
	ctx, stop := runtime.SignalContext(context.Background())
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
