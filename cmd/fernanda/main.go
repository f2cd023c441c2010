// Command fernanda is the process entrypoint: a thin single-instance
// gate (§6.5) around the Cobra CLI surface in internal/cmd.
package main

import (
	"fmt"
	"os"

	"github.com/fairybow/fernanda/internal/cmd"
	"github.com/fairybow/fernanda/internal/config"
	"github.com/fairybow/fernanda/internal/startcop"
)

func main() {
	dataDir := config.UserDataDir(os.Getenv)
	cop := startcop.New(dataDir)

	ok, err := cop.Acquire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fernanda: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		// Another instance already owns the lock; hand our launch
		// arguments to it and defer (§6.5).
		if err := cop.Forward(os.Args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "fernanda: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	defer cop.Release()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
