package main

import (
	"fmt"
	"os"

	"github.com/dd0wney/cluso-filtering/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
