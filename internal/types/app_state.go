package types

import "strings"

// AppState is the UI state persisted between runs.
type AppState struct {
	LastSessionID  string   `json:"last_session_id"`
	SidebarFilter  string   `json:"sidebar_filter"`
	SidebarHidden  bool     `json:"sidebar_hidden"`
	ComposeHistory []string `json:"compose_history,omitempty"`
}

// Draft is composer input not yet submitted.
type Draft struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}

func (d Draft) Empty() bool {
	return len(d.Attachments) == 0 && strings.TrimSpace(d.Text) == ""
}
