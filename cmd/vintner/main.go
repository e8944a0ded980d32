// Package main is the entry point for the vintner CLI.
package main

import (
	"errors"
	"os"

	"github.com/vintner-cli/vintner/internal/cmd"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	os.Exit(1)
}
