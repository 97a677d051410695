package main

import (
	"fmt"
	"os"

	"github.com/team-ns/launcher/cmd/launchserver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
