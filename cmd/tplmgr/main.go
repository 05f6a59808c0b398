package main

import (
	"fmt"
	"os"

	"github.com/skosovsky/tplmgr/cmd/tplmgr/app"
)

func main() {
	if err := app.Command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
