package main

import (
	"os"

	"github.com/dshills/retoucher/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
