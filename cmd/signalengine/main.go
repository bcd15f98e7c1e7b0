package main

import (
	"context"
	"fmt"
	"os"

	"ArticleSignals/internal/cli"
)

func main() {
	ctx := context.Background()
	cmd := cli.NewRootCommand()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "signalengine:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
