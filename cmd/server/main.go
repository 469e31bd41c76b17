package main

import (
	"fmt"
	"os"

	"github.com/sheikh-saqib/iou-ledger/cmd/server/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
