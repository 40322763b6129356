package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"ledgerdesk/internal/ledgertree"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// ToastNotifier prints editor notices as one styled line each.
type ToastNotifier struct {
	out    io.Writer
	styled bool
}

// NewToastNotifier writes notices to out; styled enables colours.
func NewToastNotifier(out io.Writer, styled bool) *ToastNotifier {
	return &ToastNotifier{out: out, styled: styled}
}

// Notify implements ledgertree.Notifier.
func (t *ToastNotifier) Notify(n ledgertree.Notice) {
	line := fmt.Sprintf("[%s] %s", n.Level, n.Message)
	if n.Err != nil {
		line += ": " + n.Err.Error()
	}
	if t.styled {
		line = styleFor(n.Level).Render(line)
	}
	fmt.Fprintln(t.out, line)
}

func styleFor(l ledgertree.Level) lipgloss.Style {
	switch l {
	case ledgertree.LevelSuccess:
		return successStyle
	case ledgertree.LevelWarn:
		return warnStyle
	case ledgertree.LevelError:
		return errorStyle
	default:
		return infoStyle
	}
}
