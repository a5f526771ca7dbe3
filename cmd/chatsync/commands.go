package main

import (
	"io"
	"os"

	"chatsync/internal/config"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout       io.Writer
	stderr       io.Writer
	loadConfig   func() (config.Config, error)
	newClient    clientFactory
	runUI        func(cfg config.Config) error
	runDevserver devserverRunner
	version      string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:       stdout,
		stderr:       stderr,
		loadConfig:   config.Load,
		newClient:    newChatClient,
		runUI:        runUIProgram,
		runDevserver: runDevserverProcess,
		version:      buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"ui":        NewUICommand(wiring.stderr, wiring.loadConfig, wiring.runUI),
		"ls":        NewListCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.newClient),
		"show":      NewShowCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.newClient),
		"send":      NewSendCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.newClient),
		"rename":    NewRenameCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.newClient),
		"rm":        NewDeleteCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.newClient),
		"save":      NewSaveCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.newClient),
		"config":    NewConfigCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"devserver": NewDevserverCommand(wiring.stderr, wiring.loadConfig, wiring.runDevserver, wiring.version),
	}
}
