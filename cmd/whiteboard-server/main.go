// Whiteboard Server
// Serves the shared whiteboard document over HTTP, persisted to a JSON file.
package main

import (
	"fmt"
	"os"
)

// Version is set by -ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
