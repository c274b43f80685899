package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	flag.Parse()

	settings, err := config.Load(config.NewViper(), *configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Log output would tear the alternate screen.
	if err := tui.Run(settings, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
