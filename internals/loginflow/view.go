package loginflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m Model) View() string {
	if m.quitting && !m.authenticated {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Welcome back"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Sign in to your account"))
	b.WriteString("\n\n")

	switch m.phase {
	case phaseSendOTP:
		b.WriteString(labelStyle.Render("Email"))
		b.WriteString("\n")
		b.WriteString(m.email.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: send code • esc: quit"))

	case phaseVerifyOTP:
		b.WriteString(labelStyle.Render(fmt.Sprintf("Enter the code sent to %s", strings.TrimSpace(m.email.Value()))))
		b.WriteString("\n")
		b.WriteString(m.code.View())
		b.WriteString("\n\n")
		if m.cooldownActive {
			b.WriteString(helpStyle.Render(fmt.Sprintf("Resend code in %ds", m.cooldownLeft)))
		} else {
			b.WriteString(helpStyle.Render("ctrl+r: resend code"))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: verify • esc: quit"))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		if m.statusIsError {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
	}

	b.WriteString("\n")
	return b.String()
}
