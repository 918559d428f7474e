// The main package for the rollcall executable.
package main

import (
	"github.com/JakeFAU/rollcall-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
