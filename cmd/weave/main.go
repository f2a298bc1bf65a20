// Command weave renders and inspects weave app manifests.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/weave/cmd/weave/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
