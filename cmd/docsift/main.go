package main

import (
	"os"

	"github.com/mvp-joe/docsift/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
