// Package main provides the entry point for the rtfm CLI.
package main

import (
	"fmt"
	"os"

	"github.com/hile/rtfm/cmd/rtfm/cmd"
	rerrors "github.com/hile/rtfm/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, rerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
