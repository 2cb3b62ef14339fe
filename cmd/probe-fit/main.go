// Command probe-fit fits geometric primitives to touch-probe samples and
// builds, queries and reports probe tip calibration tables.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
