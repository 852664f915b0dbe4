// arcglobe inspects and distributes the globe route table.
package main

import (
	"os"

	"github.com/samirrijal/arcglobe/cmd/arcglobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
