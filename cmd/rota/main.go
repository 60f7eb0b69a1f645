package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/rotation-api-go/pkg/config"
)

func main() {
	config.LoadDotEnv()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
