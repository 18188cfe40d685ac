package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/linkshield/linkshield-go/internal/cli"
)

var version = "dev"

func main() {
	root := cli.NewRoot(version)
	if err := root.ExecuteContext(context.Background()); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
