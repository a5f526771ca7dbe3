package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"
	"time"

	"chatsync/internal/types"
)

const version = "dev"

func printSessions(output io.Writer, sessions []*types.SessionSummary, loc *time.Location) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tUPDATED\tFLAGS\tTITLE")
	for _, session := range sessions {
		updated := "-"
		if at := session.ActivityAt(); !at.IsZero() {
			updated = at.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", session.ID, updated, sessionFlags(session), session.DisplayTitle())
	}
	_ = writer.Flush()
}

func sessionFlags(session *types.SessionSummary) string {
	var flags []string
	if session.Pinned {
		flags = append(flags, "pinned")
	}
	if session.Saved {
		flags = append(flags, "saved")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func printMessage(output io.Writer, msg types.Message, loc *time.Location) {
	label := "you"
	if msg.Sender == types.SenderAssistant {
		label = "assistant"
	}
	stamp := ""
	if !msg.Timestamp.IsZero() {
		stamp = " " + msg.Timestamp.In(loc).Format("15:04")
	}
	fmt.Fprintf(output, "[%s%s] %s\n", label, stamp, msg.Content)
	for _, url := range msg.Attachments {
		fmt.Fprintf(output, "  attachment: %s\n", url)
	}
}

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func requireArg(args []string, name string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " "))
	}
	return strings.TrimSpace(args[0]), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}
