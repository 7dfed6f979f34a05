package main

import (
	"os"

	"github.com/conneroisu/nucleator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
