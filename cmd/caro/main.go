package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/caro-sh/caro/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

// run keeps os.Exit out of the deferred path so the container is always
// closed (audit database, backend pool, log sink) before the process ends.
func run() int {
	ctx := context.Background()
	opts := cli.Options{Verbose: isVerbose()}

	root, container, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer container.Close()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("CARO_DEBUG"), "1") || strings.EqualFold(os.Getenv("CARO_DEBUG"), "true")
}
