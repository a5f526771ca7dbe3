package app

import "github.com/charmbracelet/lipgloss"

const (
	chatBubblePaddingVertical   = 0
	chatBubblePaddingHorizontal = 1
)

var (
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	filterStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	groupStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
	sessionStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeSessionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	userBubbleStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	agentBubbleStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	failedBubbleStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("160")).Foreground(lipgloss.Color("245")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	chatMetaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	pendingMetaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	failedMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	attachmentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Underline(true)
	toastInfoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)
