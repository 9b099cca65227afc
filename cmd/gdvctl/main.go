// Command gdvctl loads the indicator tables the same way the server does and
// inspects, exports or persists the merged dataset from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&cli{out: os.Stdout, errOut: os.Stderr}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
