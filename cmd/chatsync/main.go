package main

import (
	"fmt"
	"os"
)

const usageText = `chatsync is a terminal client for a chat backend.

Usage:
  chatsync <command> [flags]

Commands:
  ui         run the terminal UI (default)
  ls         list chats
  show       print a chat transcript
  send       send a message (creates a chat without --session)
  rename     rename a chat
  rm         delete a chat
  save       save a chat
  config     print configuration (effective or defaults)
  devserver  run an in-memory backend for local development
  help       show help

Flags:
  -h, --help   show help

Examples:
  chatsync ls --filter pinned
  chatsync send --attach ./notes.txt "summarize this"
  chatsync show <id> --json
  chatsync devserver --token dev
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"ui"}
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
