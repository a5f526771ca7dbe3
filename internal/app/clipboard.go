package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"

	"chatsync/internal/types"
)

const envDisableOSC52 = "CHATSYNC_DISABLE_OSC52"

var (
	clipboardWriteAll   = clipboard.WriteAll
	clipboardWriteOSC52 = writeOSC52ToTTY
)

// copyTextToClipboard tries the system clipboard first and falls back to an
// OSC 52 escape, which works over ssh when the terminal supports it.
func copyTextToClipboard(text string) (viaTerminal bool, err error) {
	sysErr := clipboardWriteAll(text)
	if sysErr == nil {
		return false, nil
	}
	oscErr := clipboardWriteOSC52(text)
	if oscErr == nil {
		return true, nil
	}
	if missingDisplay() {
		return false, fmt.Errorf("no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset); terminal copy failed: %s", humanizeClipboardError(oscErr))
	}
	return false, fmt.Errorf("%s; terminal copy failed: %s", humanizeClipboardError(sysErr), humanizeClipboardError(oscErr))
}

// copyLastReply copies the newest assistant message of the open chat.
func (m *Model) copyLastReply() {
	messages := m.engine.Store().Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Sender != types.SenderAssistant || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		viaTerminal, err := copyTextToClipboard(msg.Content)
		if err != nil {
			m.setStatus("copy failed: " + err.Error())
			m.showErrorToast("copy failed: " + err.Error())
			return
		}
		text := "Reply copied."
		if viaTerminal {
			text = "Reply copied via terminal."
		}
		m.setStatus(text)
		m.showInfoToast(text)
		return
	}
	m.setStatus("Nothing to copy yet.")
}

func writeOSC52ToTTY(text string) error {
	if !osc52Enabled() {
		return fmt.Errorf("terminal copy disabled for TERM=%q", os.Getenv("TERM"))
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return writeOSC52(tty, text)
}

// writeOSC52 wraps the sequence for tmux and screen so the outer terminal
// receives it.
func writeOSC52(w io.Writer, text string) error {
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(os.Getenv("TERM"), "screen"):
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(w)
	return err
}

func osc52Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envDisableOSC52))) {
	case "1", "true", "yes", "on":
		return false
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term != "" && !strings.EqualFold(term, "dumb")
}

func humanizeClipboardError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "exit status 1" {
		if missingDisplay() {
			return "no GUI clipboard available"
		}
		return "clipboard helper exited with status 1"
	}
	return msg
}

func missingDisplay() bool {
	return strings.TrimSpace(os.Getenv("DISPLAY")) == "" && strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) == ""
}
