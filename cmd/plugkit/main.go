package main

import (
	"os"

	"github.com/platinummonkey/plugkit/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
