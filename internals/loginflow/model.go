// Package loginflow drives the two-phase OTP login from a terminal: request
// a challenge for an email, then verify the emailed code. The model owns all
// flow state, including the resend cooldown countdown.
package loginflow

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type phase int

const (
	phaseSendOTP phase = iota
	phaseVerifyOTP
)

// issueResultMsg reports the outcome of an IssueChallenge call.
// resend distinguishes the resend sub-flow (which starts the cooldown) from
// the initial send (which transitions the phase). cooldown carries the
// server-advertised resend throttle, zero when the server didn't say.
type issueResultMsg struct {
	resend   bool
	message  string
	cooldown int
	err      error
}

// verifyResultMsg reports the outcome of a VerifyChallenge call.
type verifyResultMsg struct {
	message string
	err     error
}

// cooldownTickMsg advances the resend countdown. seq ties a tick to the
// countdown that scheduled it; ticks from an abandoned countdown carry a
// stale seq and are dropped.
type cooldownTickMsg struct {
	seq int
}

// Model is the login flow state machine.
type Model struct {
	client Client

	phase phase
	email textinput.Model
	code  textinput.Model

	// busy is set while a network call is in flight. Submits and resends
	// are ignored until the result message arrives.
	busy bool

	status        string
	statusIsError bool

	cooldownActive bool
	cooldownLeft   int
	cooldownSecs   int
	cooldownSeq    int

	authenticated bool
	quitting      bool
}

// New builds the flow in its initial SEND_OTP phase.
// cooldownSeconds is the resend throttle duration, used until the server
// advertises its own with an issuance response.
func New(client Client, cooldownSeconds int) Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	code := textinput.New()
	code.Placeholder = "6-digit code"
	code.CharLimit = 6

	return Model{
		client:       client,
		phase:        phaseSendOTP,
		email:        email,
		code:         code,
		cooldownSecs: cooldownSeconds,
	}
}

// Authenticated reports whether the flow exited with a verified login.
func (m Model) Authenticated() bool {
	return m.authenticated
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m.abandon()
		case "enter":
			return m.submit()
		case "ctrl+r":
			return m.resend()
		}
	case issueResultMsg:
		return m.handleIssueResult(msg)
	case verifyResultMsg:
		return m.handleVerifyResult(msg)
	case cooldownTickMsg:
		return m.handleCooldownTick(msg)
	}

	var cmd tea.Cmd
	switch m.phase {
	case phaseSendOTP:
		m.email, cmd = m.email.Update(msg)
	case phaseVerifyOTP:
		m.code, cmd = m.code.Update(msg)
	}
	return m, cmd
}

// abandon leaves the flow. Bumping the sequence orphans any in-flight
// cooldown tick, so no countdown survives the model.
func (m Model) abandon() (tea.Model, tea.Cmd) {
	m.cooldownSeq++
	m.cooldownActive = false
	m.quitting = true
	return m, tea.Quit
}

// submit is the single form action; what it does depends on the phase.
// Empty inputs are rejected locally without touching the network.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch m.phase {
	case phaseSendOTP:
		if strings.TrimSpace(m.email.Value()) == "" {
			m.status = "Please enter a valid email address."
			m.statusIsError = true
			return m, nil
		}
		m.busy = true
		m.status = "Sending code..."
		m.statusIsError = false
		return m, m.issueCmd(false)

	case phaseVerifyOTP:
		if strings.TrimSpace(m.code.Value()) == "" {
			m.status = "Please enter the code from your email."
			m.statusIsError = true
			return m, nil
		}
		m.busy = true
		m.status = "Verifying..."
		m.statusIsError = false
		return m, m.verifyCmd()
	}
	return m, nil
}

// resend re-requests a code for the same email. A no-op while the cooldown
// runs, while a call is in flight, or while the email is empty.
func (m Model) resend() (tea.Model, tea.Cmd) {
	if m.phase != phaseVerifyOTP {
		return m, nil
	}
	if m.busy || m.cooldownActive || strings.TrimSpace(m.email.Value()) == "" {
		return m, nil
	}
	m.busy = true
	m.status = "Resending code..."
	m.statusIsError = false
	return m, m.issueCmd(true)
}

func (m Model) issueCmd(resend bool) tea.Cmd {
	client := m.client
	email := strings.TrimSpace(m.email.Value())
	return func() tea.Msg {
		result, err := client.IssueChallenge(context.Background(), email)
		return issueResultMsg{resend: resend, message: result.Message, cooldown: result.ResendCooldown, err: err}
	}
}

func (m Model) verifyCmd() tea.Cmd {
	client := m.client
	email := strings.TrimSpace(m.email.Value())
	code := strings.TrimSpace(m.code.Value())
	return func() tea.Msg {
		message, err := client.VerifyChallenge(context.Background(), email, code)
		return verifyResultMsg{message: message, err: err}
	}
}

func (m Model) handleIssueResult(msg issueResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	if msg.err != nil {
		// Stay put; a failed issuance never starts a cooldown.
		m.status = msg.err.Error()
		m.statusIsError = true
		return m, nil
	}

	m.statusIsError = false
	// The server's advertised throttle wins over the configured default, so
	// both sides stay in step when the server config changes.
	if msg.cooldown > 0 {
		m.cooldownSecs = msg.cooldown
	}
	if msg.resend {
		m.status = "Code resent. Check your email."
		return m.startCooldown()
	}

	m.phase = phaseVerifyOTP
	m.email.Blur()
	m.code.Focus()
	m.status = "Code sent. Check your email."
	return m, textinput.Blink
}

func (m Model) handleVerifyResult(msg verifyResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	if msg.err != nil {
		// Wrong or expired code: stay in VERIFY_OTP with the email intact.
		m.status = msg.err.Error()
		m.statusIsError = true
		return m, nil
	}

	m.authenticated = true
	m.cooldownSeq++
	m.cooldownActive = false
	m.status = "Login successful!"
	m.statusIsError = false
	return m, tea.Quit
}

func (m Model) startCooldown() (tea.Model, tea.Cmd) {
	m.cooldownActive = true
	m.cooldownLeft = m.cooldownSecs
	m.cooldownSeq++
	return m, cooldownTick(m.cooldownSeq)
}

func (m Model) handleCooldownTick(msg cooldownTickMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.cooldownSeq || !m.cooldownActive {
		// Tick from a countdown that was cancelled or superseded.
		return m, nil
	}

	m.cooldownLeft--
	if m.cooldownLeft <= 0 {
		m.cooldownLeft = 0
		m.cooldownActive = false
		return m, nil
	}
	return m, cooldownTick(msg.seq)
}

func cooldownTick(seq int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return cooldownTickMsg{seq: seq}
	})
}
