// Package render turns conversation messages into terminal output.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/medassist/internal/conversation"
)

// Theme is the resolved colour scheme.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// ResolveTheme turns a configured preference into a theme. "auto" reads the
// terminal's background from COLORFGBG and falls back to dark.
func ResolveTheme(preference string, getenv func(string) string) Theme {
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case string(Dark):
		return Dark
	case string(Light):
		return Light
	}

	fgbg := getenv("COLORFGBG")
	if fgbg == "" {
		return Dark
	}
	parts := strings.Split(fgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return Dark
	}
	// ANSI 7 and 9-15 are light backgrounds.
	if bg == 7 || (bg >= 9 && bg <= 15) {
		return Light
	}
	return Dark
}

// Descriptor says how a sender is labelled.
type Descriptor struct {
	Label string
	Color lipgloss.Color
}

func descriptors(theme Theme) map[conversation.Sender]Descriptor {
	if theme == Light {
		return map[conversation.Sender]Descriptor{
			conversation.SenderUser:  {Label: "You", Color: lipgloss.Color("25")},
			conversation.SenderAgent: {Label: "Assistant", Color: lipgloss.Color("28")},
		}
	}
	return map[conversation.Sender]Descriptor{
		conversation.SenderUser:  {Label: "You", Color: lipgloss.Color("39")},
		conversation.SenderAgent: {Label: "Assistant", Color: lipgloss.Color("42")},
	}
}

// Options configures a Renderer.
type Options struct {
	Theme    Theme
	WordWrap int
	Markdown bool
}

// Renderer formats messages for one terminal.
type Renderer struct {
	labels   map[conversation.Sender]string
	muted    lipgloss.Style
	markdown *glamour.TermRenderer
}

// New builds a renderer. Every sender must have a descriptor; a missing one
// is reported here rather than when a message is first shown.
func New(opts Options) (*Renderer, error) {
	return newRenderer(opts, descriptors(opts.Theme))
}

func newRenderer(opts Options, table map[conversation.Sender]Descriptor) (*Renderer, error) {
	labels := make(map[conversation.Sender]string, len(table))
	for _, sender := range conversation.Senders() {
		d, ok := table[sender]
		if !ok {
			return nil, fmt.Errorf("no render descriptor for sender %q", sender)
		}
		labels[sender] = lipgloss.NewStyle().Bold(true).Foreground(d.Color).Render(d.Label + ":")
	}

	r := &Renderer{
		labels: labels,
		muted:  lipgloss.NewStyle().Faint(true),
	}

	if opts.Markdown {
		style := string(opts.Theme)
		if style == "" {
			style = string(Dark)
		}
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(opts.WordWrap),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		r.markdown = tr
	}

	return r, nil
}

// Message renders a history entry. Agent text is treated as markdown when
// enabled; user text is printed as typed.
func (r *Renderer) Message(msg conversation.Message) string {
	body := msg.Text
	if msg.Sender == conversation.SenderAgent && r.markdown != nil {
		if out, err := r.markdown.Render(msg.Text); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	}
	return r.labels[msg.Sender] + "\n" + body
}

// Pending is shown while a chat turn is in flight.
func (r *Renderer) Pending() string {
	return r.muted.Render("Thinking...")
}

// Note renders a muted informational line.
func (r *Renderer) Note(text string) string {
	return r.muted.Render(text)
}
