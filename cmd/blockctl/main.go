// Command blockctl loads a block's port signature from a YAML file and
// prints the history/multiple/reserve byte accounting that signature
// would produce, without spinning up an engine.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/e7canasta/blockflow/inputqueue"
)

const defaultSignaturePath = "signature.yaml"

func main() {
	path := flag.String("signature", defaultSignaturePath, "Path to a block signature YAML file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := loadSignature(*path)
	if err != nil {
		logger.Error("failed to load signature", "path", *path, "error", err)
		os.Exit(1)
	}
	logger.Debug("signature loaded", "block_name", cfg.BlockName, "path", *path)

	fmt.Printf("block: %s\n", cfg.BlockName)
	fmt.Printf("  fixed_rate=%v relative_rate=%v tag_policy=%s\n", cfg.FixedRate, cfg.RelativeRate, orDefaultPolicy(cfg.TagPolicy))

	fmt.Println("  inputs:")
	for i, p := range cfg.Inputs {
		multiple := p.Multiple
		if multiple <= 0 {
			multiple = 1
		}
		historyBytes, multipleBytes, reserveBytes := inputqueue.PortByteAccounting(p.History, multiple, p.ItemSize)
		fmt.Printf("    [%d] item_size=%d history=%d multiple=%d -> history_bytes=%d multiple_bytes=%d reserve_bytes=%d\n",
			i, p.ItemSize, p.History, multiple, historyBytes, multipleBytes, reserveBytes)
	}

	fmt.Println("  outputs:")
	for i, p := range cfg.Outputs {
		fmt.Printf("    [%d] item_size=%d\n", i, p.ItemSize)
	}
}

func orDefaultPolicy(p string) string {
	if p == "" {
		return "dont_propagate"
	}
	return p
}
