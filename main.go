package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/wildlife-alert/cmd"
)

func main() {
	err := cmd.RootCommand().ExecuteContext(context.Background())
	cmd.Shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
