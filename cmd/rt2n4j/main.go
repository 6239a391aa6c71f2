// Command rt2n4j saves and retrieves referent-tracking tuples in a
// property graph.
package main

import (
	"os"

	"github.com/mcwdsi/rt2n4j/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
