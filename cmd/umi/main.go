package main

import (
	"os"

	"github.com/lugondev/go-umi/cmd/umi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
