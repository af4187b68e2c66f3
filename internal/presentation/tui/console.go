// Package tui renders step views for the terminal operator console.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/render"
)

// tabulationPulse is how long the suggested-tabulations highlight stays
// on after arriving at a step.
const tabulationPulse = 3 * time.Second

// IsInteractive reports whether stdin/stdout are attached to a terminal.
// Non-interactive invocations get plain text and no prompts.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Console formats step views with terminal styling.
type Console struct {
	profile termenv.Profile
	out     *termenv.Output
}

// NewConsole detects the terminal's color capabilities.
func NewConsole() *Console {
	out := termenv.NewOutput(os.Stdout)
	return &Console{profile: out.ColorProfile(), out: out}
}

// NewPlainConsole disables all styling; used in non-interactive mode.
func NewPlainConsole() *Console {
	return &Console{profile: termenv.Ascii}
}

// RenderView formats a full step view: alert, content, tabulations and the
// numbered button menu. With pulse set, the tabulation hint is rendered
// highlighted; PulseTabulations schedules the matching fade.
func (c *Console) RenderView(view *runtime.StepView, pulse bool) string {
	var sb strings.Builder

	if view.Terminal {
		sb.WriteString(c.style("Fim do roteiro.", func(s termenv.Style) termenv.Style {
			return s.Bold()
		}))
		sb.WriteString("\n")
		if view.CanGoBack {
			sb.WriteString("(b) voltar\n")
		}
		return sb.String()
	}

	if view.AlertText != "" {
		banner := fmt.Sprintf(" %s: %s ", view.AlertTitle, view.AlertText)
		sb.WriteString(c.style(banner, func(s termenv.Style) termenv.Style {
			return s.Bold().Foreground(c.profile.Color("#000000")).Background(c.profile.Color("#fbbf24"))
		}))
		sb.WriteString("\n\n")
	}

	if view.Step != nil && view.Step.Title != "" {
		sb.WriteString(c.style(view.Step.Title, func(s termenv.Style) termenv.Style {
			return s.Bold().Underline()
		}))
		sb.WriteString("\n\n")
	}

	sb.WriteString(c.renderNodes(view.Nodes))
	sb.WriteString("\n")

	if len(view.Tabulations) > 0 {
		sb.WriteString("\n")
		sb.WriteString(c.tabulationLine(view, pulse))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	for i, button := range view.Buttons {
		label := button.Label
		if button.Terminal() {
			label += " (encerra)"
		}
		line := fmt.Sprintf("(%d) %s", i+1, label)
		if button.Primary {
			line = c.style(line, func(s termenv.Style) termenv.Style { return s.Bold() })
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if view.CanGoBack {
		sb.WriteString("(b) voltar\n")
	}

	return sb.String()
}

func (c *Console) tabulationLine(view *runtime.StepView, pulse bool) string {
	names := make([]string, 0, len(view.Tabulations))
	for _, tab := range view.Tabulations {
		names = append(names, tab.Name)
	}
	line := "Tabulações sugeridas: " + strings.Join(names, ", ")
	if pulse && c.profile != termenv.Ascii {
		return c.style(" "+line+" ", func(s termenv.Style) termenv.Style {
			return s.Bold().Foreground(c.profile.Color("#000000")).Background(c.profile.Color("#a7f3d0"))
		})
	}
	return c.style(line, func(s termenv.Style) termenv.Style {
		return s.Italic().Faint()
	})
}

// PulseTabulations fades the highlighted tabulation hint back to its
// resting style after a short delay, rewriting the line in place while
// the operator reads the step. The returned stop cancels a pending fade;
// it is a no-op once fired. Plain consoles pulse nothing.
func (c *Console) PulseTabulations(view *runtime.StepView) (stop func()) {
	if c.out == nil || len(view.Tabulations) == 0 {
		return func() {}
	}

	// Rows between the tabulation line and the prompt the cursor sits
	// on: a blank separator, the button menu, the back hint, and the
	// blank line before the prompt.
	up := len(view.Buttons) + 2
	if view.CanGoBack {
		up++
	}
	faint := c.tabulationLine(view, false)

	timer := time.AfterFunc(tabulationPulse, func() {
		c.out.SaveCursorPosition()
		c.out.CursorUp(up)
		c.out.ClearLine()
		fmt.Fprint(c.out, "\r"+faint)
		c.out.RestoreCursorPosition()
	})
	return func() { timer.Stop() }
}

// renderNodes maps styled content nodes onto terminal attributes. Pixel
// sizes and font families have no terminal equivalent and are ignored.
func (c *Console) renderNodes(nodes []render.Node) string {
	var sb strings.Builder
	for _, node := range nodes {
		if node.Kind == render.NodeBreak {
			sb.WriteString("\n")
			continue
		}
		if node.Style == nil {
			sb.WriteString(node.Text)
			continue
		}
		styled := termenv.String(node.Text)
		if node.Style.Bold {
			styled = styled.Bold()
		}
		if node.Style.Italic {
			styled = styled.Italic()
		}
		if node.Style.Color != "" {
			styled = styled.Foreground(c.profile.Color(node.Style.Color))
		}
		if node.Style.Background != "" {
			styled = styled.Background(c.profile.Color(node.Style.Background))
		}
		sb.WriteString(styled.String())
	}
	return sb.String()
}

func (c *Console) style(text string, apply func(termenv.Style) termenv.Style) string {
	if c.profile == termenv.Ascii {
		return text
	}
	return apply(termenv.String(text)).String()
}
