package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatsync/internal/config"
	"chatsync/internal/devserver"
	"chatsync/internal/logging"
)

type devserverRunner func(ctx context.Context, opts devserver.Options) error

type DevserverCommand struct {
	stderr     io.Writer
	loadConfig func() (config.Config, error)
	run        devserverRunner
	version    string
}

func NewDevserverCommand(stderr io.Writer, loadConfig func() (config.Config, error), run devserverRunner, version string) *DevserverCommand {
	return &DevserverCommand{
		stderr:     stderr,
		loadConfig: loadConfig,
		run:        run,
		version:    version,
	}
}

func (c *DevserverCommand) Run(args []string) error {
	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	addr := fs.String("addr", "", "listen address (default from config)")
	token := fs.String("token", "", "bearer token clients must present")
	delay := fs.Duration("reply-delay", -1, "delay before the assistant reply")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts := devserver.Options{
		Addr:       cfg.DevserverAddress(),
		Token:      cfg.DevserverToken(),
		ReplyDelay: cfg.DevserverReplyDelay(),
		Version:    c.version,
		Logger:     logging.New(c.stderr, logging.ParseLevel(cfg.LogLevel())),
	}
	if v := strings.TrimSpace(*addr); v != "" {
		opts.Addr = v
	}
	if v := strings.TrimSpace(*token); v != "" {
		opts.Token = v
	}
	if *delay >= 0 {
		opts.ReplyDelay = *delay
	}
	if opts.Token == "" {
		return errors.New("a token is required: pass --token or set " + config.EnvToken)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx, opts)
}

func runDevserverProcess(ctx context.Context, opts devserver.Options) error {
	server, err := devserver.New(opts)
	if err != nil {
		return err
	}
	start := time.Now()
	err = server.Run(ctx)
	opts.Logger.Info("devserver stopped", logging.F("uptime", time.Since(start).Round(time.Second).String()))
	return err
}
