// Command spkserve serves files from inside SPK packages.
//
// Usage:
//
//	spkserve serve --upstream https://cdn.example/games
//	spkserve cat demo.spk scripts/main.js
//	spkserve inspect --list https://cdn.example/games/demo.spk
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
