package main

import (
	"os"

	"github.com/hanloveland/ramulator2-sub000/cmd/ramsim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("%v", err)
		os.Exit(1)
	}
}
