package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/gvoss/internal/database/repository"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	answerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dividerGlyph = "─"
)

func (a *App) View() string {
	var body string
	if a.showHistory {
		body = a.renderHistory()
	} else {
		body = a.renderForm()
	}
	if a.confirmClear {
		body += "\n\n" + modalStyle.Render(headerStyle.Render("Clear history?")+"\nThis deletes every stored question.\n[y] Yes  [n] No")
	}
	return body
}

func (a *App) renderForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("G-V-OSS: Visual Question Answering") + "\n")
	b.WriteString(subtleStyle.Render("Our simplified hackathon demo, answered by a hosted VQA model") + "\n\n")

	b.WriteString(headerStyle.Render("Enter Your Hugging Face API Key") + "\n")
	b.WriteString(warnStyle.Render("Your key is needed to talk to the free AI model.") + "\n")
	b.WriteString(a.inputs[fieldKey].View() + "\n")
	b.WriteString(a.divider() + "\n")

	b.WriteString(headerStyle.Render("Upload a satellite image (or any image)...") + "\n")
	b.WriteString(a.inputs[fieldImage].View() + "\n")
	switch {
	case a.loadingImage:
		b.WriteString(subtleStyle.Render("loading image...") + "\n")
	case a.imageErr != "":
		b.WriteString(errorStyle.Render(a.truncate(a.imageErr)) + "\n")
	case a.upload != nil:
		b.WriteString(fmt.Sprintf("Your Uploaded Image: %s (%dx%d)\n", a.upload.Name, a.upload.Width, a.upload.Height))
	}

	if a.upload != nil {
		b.WriteString("\n" + headerStyle.Render("Ask a question about this image:") + "\n")
		b.WriteString(a.inputs[fieldQuestion].View() + "\n")

		if a.formErr != "" {
			b.WriteString(errorStyle.Render(a.formErr) + "\n")
		}
		if a.asking {
			b.WriteString(subtleStyle.Render("...AI is thinking...") + "\n")
		}
		if a.answer != nil {
			b.WriteString("\n" + headerStyle.Render("AI Answer:") + "\n")
			if a.answer.Failed() {
				b.WriteString(errorStyle.Render(a.truncate(a.answer.Text)) + "\n")
			} else {
				b.WriteString(answerStyle.Render(a.truncate(a.answer.Text)) + "\n")
				if others := a.otherCandidates(); others != "" {
					b.WriteString(subtleStyle.Render(a.truncate("Also possible: "+others)) + "\n")
				}
			}
		}
		if len(a.similar) > 0 {
			b.WriteString("\n" + subtleStyle.Render("Asked before:") + "\n")
			for _, m := range a.similar {
				where := "other image"
				if m.SameImage {
					where = "this image"
				}
				line := fmt.Sprintf("- %s -> %s (%s)", m.Query.Question, m.Query.Answer, where)
				b.WriteString(subtleStyle.Render(a.truncate(line)) + "\n")
			}
		}
	}

	b.WriteString("\n" + subtleStyle.Render(a.truncate(a.keys.helpLine(scopeForm))))
	if a.status != "" {
		b.WriteString("\n" + a.truncate(a.status))
	}
	return b.String()
}

func (a *App) renderHistory() string {
	out := titleStyle.Render("History") + "\n"
	if len(a.history) == 0 {
		out += "No questions asked yet.\n"
	} else {
		out += a.historyTable.View() + "\n"
	}
	out += subtleStyle.Render(a.truncate(a.keys.helpLine(scopeHistory)))
	if a.status != "" {
		out += "\n" + a.truncate(a.status)
	}
	return out
}

func (a *App) otherCandidates() string {
	if a.answer == nil || len(a.answer.Candidates) < 2 {
		return ""
	}
	var parts []string
	for _, c := range a.answer.Candidates[1:] {
		parts = append(parts, fmt.Sprintf("%s %.2f", c.Label, c.Score))
		if len(parts) == 4 {
			break
		}
	}
	return strings.Join(parts, ", ")
}

func (a *App) divider() string {
	w := a.width
	if w <= 0 || w > 80 {
		w = 40
	}
	return subtleStyle.Render(strings.Repeat(dividerGlyph, w))
}

// truncate keeps a line within the terminal width.
func (a *App) truncate(s string) string {
	if a.width <= 0 {
		return s
	}
	return ansi.Truncate(s, a.width, "…")
}

func newHistoryTable() table.Model {
	cols := []table.Column{
		{Title: "When", Width: 16},
		{Title: "Image", Width: 18},
		{Title: "Question", Width: 36},
		{Title: "Answer", Width: 32},
	}
	return table.New(table.WithColumns(cols), table.WithHeight(12))
}

func historyRows(list []repository.Query) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, q := range list {
		rows = append(rows, table.Row{
			q.AskedAt.Local().Format("2006-01-02 15:04"),
			q.ImageName,
			q.Question,
			q.Answer,
		})
	}
	return rows
}
