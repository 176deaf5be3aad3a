package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"avatarstudio/internal/project"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"

	barWidth   = 30
	labelWidth = 10
	indent     = "  "
)

var titleCaser = cases.Title(language.English)

// View renders generation progress and forwards actions.
type View struct {
	clock   *Clock
	actions Actions
	color   *bool
}

// ViewOption customises a View.
type ViewOption func(*View)

// WithNow injects the time source used by the elapsed clock.
func WithNow(now func() time.Time) ViewOption {
	return func(v *View) { v.clock = NewClock(now) }
}

// WithColor forces ANSI colour on or off instead of detecting a terminal.
func WithColor(enabled bool) ViewOption {
	return func(v *View) { v.color = &enabled }
}

// NewView builds a view forwarding actions to the given controller.
func NewView(actions Actions, opts ...ViewOption) *View {
	v := &View{actions: actions}
	for _, opt := range opts {
		opt(v)
	}
	if v.clock == nil {
		v.clock = NewClock(nil)
	}
	return v
}

// Elapsed returns the processing time shown by the view.
func (v *View) Elapsed() time.Duration {
	return v.clock.Elapsed()
}

// Observe updates the clock without drawing.
func (v *View) Observe(p project.GenerationProgress) {
	v.clock.Observe(p)
}

// Dispatch forwards action to the controller unchanged.
func (v *View) Dispatch(ctx context.Context, action Action) error {
	return dispatch(ctx, v.actions, action)
}

// StageLabel returns the title-cased label of a stage.
func StageLabel(stage project.Stage) string {
	if stage == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(string(stage), "_", " "))
}

// Render writes the presentation for p. The idle presentation writes nothing.
func (v *View) Render(w io.Writer, p project.GenerationProgress) error {
	v.clock.Observe(p)
	presentation := Select(p)
	if presentation == PresentationIdle {
		return nil
	}
	colorize := v.colorize(w)

	var lines []string
	switch presentation {
	case PresentationProcessing:
		lines = append(lines, header("Generating video", ansiBlue, colorize)...)
		lines = append(lines,
			field("Stage", StageLabel(p.Stage)),
			field("Progress", progressBar(p.Progress)),
		)
		if p.Message != "" {
			lines = append(lines, field("Status", p.Message))
		}
		lines = append(lines, field("Elapsed", formatElapsed(v.clock.Elapsed())))
	case PresentationCompleted:
		lines = append(lines, header("Video ready", ansiGreen, colorize)...)
		lines = append(lines, field("Video", p.VideoURL), field("Elapsed", formatElapsed(v.clock.Elapsed())))
	case PresentationFailed:
		lines = append(lines, header("Generation failed", ansiRed, colorize)...)
		msg := p.Error
		if msg == "" {
			msg = "Generation failed"
		}
		lines = append(lines, field("Error", paint(msg, ansiRed, colorize)))
	case PresentationCancelled:
		lines = append(lines, header("Generation cancelled", ansiYellow, colorize)...)
		lines = append(lines, field("Progress", progressBar(p.Progress)))
		if p.JobID != "" {
			lines = append(lines, field("Note", "job "+p.JobID+" may still finish on the server"))
		}
	}
	if p.JobID != "" {
		lines = append(lines, field("Job", p.JobID))
	}
	if actions := AvailableActions(presentation); len(actions) > 0 {
		labels := make([]string, 0, len(actions))
		for _, a := range actions {
			labels = append(labels, fmt.Sprintf("%s (%s)", a.Label, a.Action))
		}
		lines = append(lines, field("Actions", strings.Join(labels, ", ")))
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// RenderLine writes a compact one-line update suitable for live progress.
func (v *View) RenderLine(w io.Writer, p project.GenerationProgress) error {
	v.clock.Observe(p)
	if Select(p) != PresentationProcessing {
		return nil
	}
	line := fmt.Sprintf("%s  %-18s %s", progressBar(p.Progress), StageLabel(p.Stage), formatElapsed(v.clock.Elapsed()))
	_, err := io.WriteString(w, paint(line, ansiBlue, v.colorize(w))+"\n")
	return err
}

func (v *View) colorize(w io.Writer) bool {
	if v.color != nil {
		return *v.color
	}
	return ShouldColorize(w)
}

// ShouldColorize reports whether w is a terminal.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func header(title, color string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", title)
	return []string{paint(line, color, colorize)}
}

func field(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", indent, labelWidth, label+":", value)
}

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

func progressBar(progress int) string {
	progress = min(max(progress, 0), 100)
	filled := progress * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + fmt.Sprintf("] %d%%", progress)
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
