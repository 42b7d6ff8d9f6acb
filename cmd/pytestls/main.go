package main

import (
	"os"

	"github.com/pytestls/pytestls/internal/cmd/pytestls"
)

func main() {
	os.Exit(pytestls.Run(os.Args[1:]))
}
