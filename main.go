// ABOUTME: Entry point for the ProxiMyti vendor board CLI
// ABOUTME: Hands arguments to the cobra command tree and maps errors to exit codes
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ProxiMyti/proximyti-monday-integration/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
