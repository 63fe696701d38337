// Package view renders chat notifications as styled terminal lines.
package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/samber/lo"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/notify"
)

// imageSuffix marks a message body that is an image URL.
const imageSuffix = ".gif"

// IsImage reports whether body should be shown as an image reference rather
// than text.
func IsImage(body string) bool {
	return strings.HasSuffix(body, imageSuffix)
}

// Options configures a Terminal.
type Options struct {
	// Self is the local username. Its messages are highlighted.
	Self string
	// NoColor strips all styling.
	NoColor bool
}

type styles struct {
	header lipgloss.Style
	status lipgloss.Style
	online lipgloss.Style
	sender lipgloss.Style
	self   lipgloss.Style
	body   lipgloss.Style
	image  lipgloss.Style
	faint  lipgloss.Style
}

// Terminal writes one or more lines per notification to an io.Writer.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	self   string
	styles styles
}

// NewTerminal creates a Terminal writing to w.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	r := lipgloss.NewRenderer(w)
	if opts.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Terminal{
		out:  w,
		self: opts.Self,
		styles: styles{
			header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
			status: r.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
			online: r.NewStyle().Foreground(lipgloss.Color("42")),
			sender: r.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
			self:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("141")),
			body:   r.NewStyle().Foreground(lipgloss.Color("250")),
			image:  r.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
			faint:  r.NewStyle().Faint(true),
		},
	}
}

// Attach subscribes t to bus.
func (t *Terminal) Attach(bus *notify.Bus[chat.Notification]) notify.Subscription {
	return bus.Subscribe(t.Handle)
}

// Handle renders n. It is a notify.Handler.
func (t *Terminal) Handle(n chat.Notification) error {
	var line string
	switch n := n.(type) {
	case chat.RosterChanged:
		line = t.renderRoster(n.Roster)
	case chat.MessageReceived:
		line = t.renderMessage(n)
	case chat.ConnectionChanged:
		line = t.renderStatus(n.Status)
	default:
		return fmt.Errorf("unsupported notification %T", n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.out, line)
	return err
}

// Printf writes an unstyled line, such as a prompt hint.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) renderRoster(roster []chat.UserProfile) string {
	header := t.styles.header.Render(fmt.Sprintf("Users (%d)", len(roster)))
	if len(roster) == 0 {
		return header + " " + t.styles.faint.Render("nobody online")
	}
	names := lo.Map(roster, func(p chat.UserProfile, _ int) string {
		return t.styles.online.Render("●") + " " + t.nameStyle(p.Name).Render(p.Name)
	})
	return header + " " + strings.Join(names, "  ")
}

func (t *Terminal) renderMessage(m chat.MessageReceived) string {
	sender := t.nameStyle(m.Message.Sender).Render(m.Message.Sender + ":")
	if IsImage(m.Message.Body) {
		return sender + " " + t.styles.faint.Render("[image]") + " " + t.styles.image.Render(m.Message.Body)
	}
	return sender + " " + t.styles.body.Render(m.Message.Body)
}

func (t *Terminal) renderStatus(status chat.Status) string {
	switch status {
	case chat.StatusRegistering:
		return t.styles.status.Render("Connecting...")
	case chat.StatusActive:
		return t.styles.status.Render("Connected")
	default:
		return t.styles.status.Render("Disconnected")
	}
}

func (t *Terminal) nameStyle(name string) lipgloss.Style {
	if name != "" && name == t.self {
		return t.styles.self
	}
	return t.styles.sender
}
