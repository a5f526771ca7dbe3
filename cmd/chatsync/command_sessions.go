package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"chatsync/internal/chat"
	chatclient "chatsync/internal/client"
	"chatsync/internal/config"
)

type sessionCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
	newClient  clientFactory
	now        func() time.Time
}

func newSessionCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) sessionCommand {
	return sessionCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
		newClient:  newClient,
		now:        time.Now,
	}
}

func (c sessionCommand) client() (commandClient, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newClient(cfg)
}

func (c sessionCommand) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func writeJSON(out io.Writer, payload any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

type ListCommand struct {
	sessionCommand
}

func NewListCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) *ListCommand {
	return &ListCommand{newSessionCommand(stdout, stderr, loadConfig, newClient)}
}

func (c *ListCommand) Run(args []string) error {
	fs := c.flags("ls")
	filter := fs.String("filter", string(chat.FilterAll), "category: all|pinned|saved")
	search := fs.String("search", "", "case-insensitive title match")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return err
	}
	projected := chat.Project(sessions, chat.ParseFilter(*filter), *search, c.now(), time.Local).Ordered()
	if *asJSON {
		return writeJSON(c.stdout, projected)
	}
	printSessions(c.stdout, projected, time.Local)
	return nil
}

type ShowCommand struct {
	sessionCommand
}

func NewShowCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) *ShowCommand {
	return &ShowCommand{newSessionCommand(stdout, stderr, loadConfig, newClient)}
}

func (c *ShowCommand) Run(args []string) error {
	fs := c.flags("show")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs.Args(), "session id")
	if err != nil {
		return err
	}

	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	session, err := client.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(c.stdout, session)
	}
	fmt.Fprintf(c.stdout, "%s (%s)\n", session.DisplayTitle(), session.ID)
	for _, msg := range session.Messages {
		printMessage(c.stdout, msg, time.Local)
	}
	return nil
}

type SendCommand struct {
	sessionCommand
}

func NewSendCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) *SendCommand {
	return &SendCommand{newSessionCommand(stdout, stderr, loadConfig, newClient)}
}

func (c *SendCommand) Run(args []string) error {
	fs := c.flags("send")
	sessionID := fs.String("session", "", "existing chat id (omit to create a chat)")
	var attachments stringList
	fs.Var(&attachments, "attach", "file path or URL to attach (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" && len(attachments) == 0 {
		return fmt.Errorf("message text or --attach is required")
	}

	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	var urls []string
	if len(attachments) > 0 {
		urls, err = client.UploadFiles(ctx, attachments)
		if err != nil {
			return fmt.Errorf("upload attachments: %w", err)
		}
	}
	resp, err := client.SendMessage(ctx, chatclient.SendMessageRequest{
		SessionID:   strings.TrimSpace(*sessionID),
		Text:        text,
		Attachments: urls,
	})
	if err != nil {
		return err
	}
	outcome, err := chat.ParseSendOutcome(*sessionID, chat.SendMatch{Text: text, Attachments: len(urls)}, resp)
	if err != nil {
		return err
	}
	if outcome.Kind == chat.OutcomeCreated {
		fmt.Fprintf(c.stdout, "created chat %s\n", outcome.SessionID)
	}
	for _, msg := range outcome.Followups {
		printMessage(c.stdout, msg, time.Local)
	}
	return nil
}

type RenameCommand struct {
	sessionCommand
}

func NewRenameCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) *RenameCommand {
	return &RenameCommand{newSessionCommand(stdout, stderr, loadConfig, newClient)}
}

func (c *RenameCommand) Run(args []string) error {
	fs := c.flags("rename")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: chatsync rename <id> <title>")
	}
	id := strings.TrimSpace(rest[0])
	title := strings.TrimSpace(strings.Join(rest[1:], " "))
	if title == "" {
		return chat.ErrEmptyTitle
	}

	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	if err := client.RenameSession(ctx, id, title); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "renamed %s\n", id)
	return nil
}

type DeleteCommand struct {
	sessionCommand
}

func NewDeleteCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) *DeleteCommand {
	return &DeleteCommand{newSessionCommand(stdout, stderr, loadConfig, newClient)}
}

func (c *DeleteCommand) Run(args []string) error {
	fs := c.flags("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs.Args(), "session id")
	if err != nil {
		return err
	}
	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	if err := client.DeleteSession(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "deleted %s\n", id)
	return nil
}

type SaveCommand struct {
	sessionCommand
}

func NewSaveCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error), newClient clientFactory) *SaveCommand {
	return &SaveCommand{newSessionCommand(stdout, stderr, loadConfig, newClient)}
}

func (c *SaveCommand) Run(args []string) error {
	fs := c.flags("save")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs.Args(), "session id")
	if err != nil {
		return err
	}
	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	if err := client.SaveSession(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "saved %s\n", id)
	return nil
}
