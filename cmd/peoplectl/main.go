// Command peoplectl runs individual person operations against the configured
// MongoDB collection, or against an in-memory store with --memory.
package main

import (
	"os"

	"github.com/peopledb/peopledb/pkg/logger"
)

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
