package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"backrelay/internal/app"
)

func main() {
	var (
		cfgPath string
		once    bool
		test    bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.BoolVar(&once, "once", false, "run a single relay pass and exit")
	flag.BoolVar(&test, "test", false, "post a test message through the legacy webhook and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	switch {
	case test:
		err = a.TestWebhook(ctx)
	case once:
		err = a.RunOnce(ctx)
	default:
		if err = a.Start(ctx); err == nil {
			<-ctx.Done()
		}
	}

	if stopErr := a.Stop(context.Background()); err == nil {
		err = stopErr
	}
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
