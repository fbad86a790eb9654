// spritepack packs rectangular images into sprite atlases.
//
// Packs rectangular images into one or more minimal atlas surfaces and
// prints the resulting placement geometry.
//
// Build:
//
//	go build -o spritepack ./cmd/spritepack
package main

import (
	"fmt"
	"os"

	"github.com/piwi3910/spritepack/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
