// Package main is the entry point for the gfsave CLI.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/thoreinstein/gfsave/cmd/gfsave/commands"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	// The doctor command reports through its exit code alone.
	if !errors.Is(err, commands.ErrSilent) {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintf(os.Stderr, "%s %v\n", red.Sprint("Error:"), err)
		if s := gferrors.SuggestionOf(err); s != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", s)
		}
	}
	os.Exit(gferrors.CodeOf(err))
}
