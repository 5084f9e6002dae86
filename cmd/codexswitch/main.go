package main

import (
	"context"
	"fmt"
	"os"

	"github.com/janekbaraniewski/codexswitch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	root := newRootCommand(cfg)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
