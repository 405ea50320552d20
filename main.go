// Strata - Architecture symbol graph and gap analysis engine.
//
// Strata scans a polyglot codebase into a file-level connection graph,
// fingerprints its symbols, and reports structural gaps such as orphaned
// code, missing tests, and circular dependencies.
package main

import (
	"fmt"
	"os"

	"github.com/stratalab/strata/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
