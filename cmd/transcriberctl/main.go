package main

import (
	"os"

	"remote-transcriber/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
