package main

import (
	"os"

	"github.com/ledgerops/ilpctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
