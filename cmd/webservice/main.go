package main

import (
	"fmt"
	"os"

	"github.com/ohowland/cgc_resilience/internal/cli"
)

// Same as "mgres serve".
func main() {
	if err := cli.ExecuteServe(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
