// cmd/loda/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"loda/cmd/loda/commands"
)

const version = "0.1.0"

// commandAliases maps short forms to their full command name, the way
// sentra maps "r" to "run".
var commandAliases = map[string]string{
	"e": "eval",
	"c": "check",
	"m": "mine",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
		return
	case "--version", "-v", "version":
		fmt.Printf("loda %s\n", version)
		return
	case "eval":
		if err := commands.EvalCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "check":
		if err := commands.CheckCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "compare":
		if err := commands.CompareCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "mine":
		if err := commands.MineCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("loda - mine and verify short arithmetic programs for integer sequences")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  loda eval <program.asm> [-terms N] [-cache path.db]          (alias: e)")
	fmt.Println("  loda check <program.asm> <expected,terms,...> [-id N]        (alias: c)")
	fmt.Println("  loda compare <existing.asm> <candidate.asm> -id N [-full]")
	fmt.Println("  loda mine <dir-of-programs> -cache path.db [-concurrency N]  (alias: m)")
	fmt.Println()
	fmt.Println("  loda help")
	fmt.Println("  loda version")
}
