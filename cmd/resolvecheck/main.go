package main

import (
	"os"

	"github.com/roach88/resolvecheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
