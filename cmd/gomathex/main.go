// Command gomathex interprets and evaluates expressions from the command line.
//
//	gomathex eval "price * qty" -p price=2.5 -p qty=4
//	gomathex check "a + b > 10"
//	gomathex functions --filter sin
//	gomathex batch "x * x" < params.jsonl
package main

import (
	"os"

	"github.com/sandrolain/gomathex/cmd/gomathex/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
