package main

import (
	"fmt"
	"os"

	"github.com/team-ns/launcher/cmd/launcher/commands"
)

func main() {
	code, err := commands.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}
