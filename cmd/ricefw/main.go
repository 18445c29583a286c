package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gi8lino/ricefwboard/internal/cli"
)

var Version = "dev"

func main() {
	if err := cli.Execute(context.Background(), Version, os.Args[1:], cli.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
