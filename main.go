// The main package for the linkarchive executable.
package main

import (
	"github.com/slarchive/linkarchive/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
