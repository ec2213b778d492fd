package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/gvoss/internal/database/repository"
	"github.com/jask/gvoss/internal/imaging"
	"github.com/jask/gvoss/internal/presets"
	"github.com/jask/gvoss/internal/service"
	"github.com/jask/gvoss/internal/vqa"
)

const (
	historyLimit = 50
	similarLimit = 3
)

type field int

const (
	fieldKey field = iota
	fieldImage
	fieldQuestion
)

// App is the single-page question form.
type App struct {
	ctx      context.Context
	services Services
	log      *zap.Logger
	keys     *keyRegistry

	inputs []textinput.Model
	focus  field

	upload       *imaging.Upload
	imageErr     string
	loadingImage bool

	asking  bool
	formErr string
	answer  *service.Answer
	similar []service.Match

	presets *presets.Cycle

	showHistory  bool
	confirmClear bool
	history      []repository.Query
	historyTable table.Model

	status string
	width  int
}

type Services struct {
	Ask     *service.AskService
	History *service.HistoryService
}

// Options pre-fills the form.
type Options struct {
	APIKey    string
	ImagePath string
	Questions []string
	Log       *zap.Logger
}

func New(ctx context.Context, services Services, opts Options) *App {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	cycle := presets.NewCycle(opts.Questions)

	keyInput := textinput.New()
	keyInput.Prompt = "key> "
	keyInput.Placeholder = "Paste your 'hf_...' key here"
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '•'
	keyInput.SetValue(opts.APIKey)

	imageInput := textinput.New()
	imageInput.Prompt = "image> "
	imageInput.Placeholder = "path to a .jpg, .jpeg or .png file"
	imageInput.SetValue(opts.ImagePath)

	questionInput := textinput.New()
	questionInput.Prompt = "question> "
	questionInput.Placeholder = "e.g., '" + cycle.Peek() + "'"
	if cycle.Peek() == "" {
		questionInput.Placeholder = "Ask anything about the image"
	}

	a := &App{
		ctx:          ctx,
		services:     services,
		log:          opts.Log.With(zap.String("component", "tui")),
		keys:         newKeyRegistry(),
		inputs:       []textinput.Model{keyInput, imageInput, questionInput},
		presets:      cycle,
		historyTable: newHistoryTable(),
	}
	start := fieldKey
	if strings.TrimSpace(opts.APIKey) != "" {
		start = fieldImage
	}
	a.setFocus(start)
	return a
}

func (a *App) Init() tea.Cmd {
	if strings.TrimSpace(a.inputs[fieldImage].Value()) != "" {
		return tea.Batch(textinput.Blink, a.loadImageCmd(a.inputs[fieldImage].Value()))
	}
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(m.Width, m.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case imageLoadedMsg:
		a.loadingImage = false
		a.imageErr = ""
		up := m.upload
		a.upload = &up
		a.answer = nil
		a.similar = nil
		a.formErr = ""
		return a, a.setFocus(fieldQuestion)
	case imageFailedMsg:
		a.loadingImage = false
		a.upload = nil
		a.answer = nil
		a.similar = nil
		a.imageErr = m.err.Error()
		if a.focus == fieldQuestion {
			a.setFocus(fieldImage)
		}
	case answerMsg:
		a.asking = false
		ans := m.answer
		a.answer = &ans
		return a, a.similarCmd(ans)
	case askFailedMsg:
		a.asking = false
		switch {
		case errors.Is(m.err, vqa.ErrNoAPIKey):
			a.formErr = vqa.MissingKeyMessage
		case errors.Is(m.err, service.ErrNoQuestion):
		default:
			a.status = "error: " + m.err.Error()
		}
	case similarMsg:
		a.similar = []service.Match(m)
	case historyMsg:
		a.history = []repository.Query(m)
		a.historyTable.SetRows(historyRows(a.history))
		a.historyTable.SetCursor(0)
	case historyClearedMsg:
		a.status = fmt.Sprintf("history cleared (%d removed)", int64(m))
		a.similar = nil
		return a, a.loadHistoryCmd()
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	scope := a.scope()
	b := a.keys.lookup(m.String(), scope)
	if b == nil {
		return a, a.passThrough(scope, m)
	}

	switch b.Action {
	case actionQuit:
		return a, tea.Quit
	case actionNextField:
		return a, a.setFocus(a.nextField(1))
	case actionPrevField:
		return a, a.setFocus(a.nextField(-1))
	case actionSubmit:
		return a, a.enter()
	case actionPreset:
		if a.upload == nil {
			a.status = "load an image first"
			return a, nil
		}
		if q := a.presets.Next(); q != "" {
			a.inputs[fieldQuestion].SetValue(q)
			a.inputs[fieldQuestion].CursorEnd()
			return a, a.setFocus(fieldQuestion)
		}
	case actionToggleKey:
		if a.inputs[fieldKey].EchoMode == textinput.EchoPassword {
			a.inputs[fieldKey].EchoMode = textinput.EchoNormal
		} else {
			a.inputs[fieldKey].EchoMode = textinput.EchoPassword
		}
	case actionHistory:
		a.showHistory = true
		a.historyTable.Focus()
		return a, a.loadHistoryCmd()
	case actionClose:
		a.showHistory = false
		a.historyTable.Blur()
	case actionReuse:
		return a, a.reuseSelected()
	case actionClear:
		a.confirmClear = true
	case actionConfirmYes:
		a.confirmClear = false
		return a, a.clearHistoryCmd()
	case actionConfirmNo:
		a.confirmClear = false
	}
	return a, nil
}

func (a *App) passThrough(scope string, m tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch scope {
	case scopeHistory:
		a.historyTable, cmd = a.historyTable.Update(m)
	case scopeForm:
		a.inputs[a.focus], cmd = a.inputs[a.focus].Update(m)
		if a.focus == fieldKey && a.formErr != "" && strings.TrimSpace(a.inputs[fieldKey].Value()) != "" {
			a.formErr = ""
		}
	}
	return cmd
}

// enter advances through the form: key -> image -> question -> submit.
func (a *App) enter() tea.Cmd {
	switch a.focus {
	case fieldKey:
		return a.setFocus(fieldImage)
	case fieldImage:
		path := strings.TrimSpace(a.inputs[fieldImage].Value())
		if path == "" {
			a.imageErr = "enter an image path"
			return nil
		}
		a.loadingImage = true
		a.imageErr = ""
		return a.loadImageCmd(path)
	default:
		return a.submit()
	}
}

// submit does nothing without a question and reports a missing key instead of
// calling the endpoint.
func (a *App) submit() tea.Cmd {
	if a.asking || a.upload == nil {
		return nil
	}
	question := a.inputs[fieldQuestion].Value()
	if strings.TrimSpace(question) == "" {
		return nil
	}
	a.answer = nil
	a.similar = nil
	if strings.TrimSpace(a.inputs[fieldKey].Value()) == "" {
		a.formErr = vqa.MissingKeyMessage
		return nil
	}
	a.formErr = ""
	a.status = ""
	a.asking = true
	return a.askCmd(service.AskInput{
		APIKey:   a.inputs[fieldKey].Value(),
		Upload:   a.upload,
		Question: question,
	})
}

func (a *App) reuseSelected() tea.Cmd {
	row := a.historyTable.SelectedRow()
	idx := a.historyTable.Cursor()
	if row == nil || idx < 0 || idx >= len(a.history) {
		return nil
	}
	a.showHistory = false
	a.historyTable.Blur()
	a.inputs[fieldQuestion].SetValue(a.history[idx].Question)
	a.inputs[fieldQuestion].CursorEnd()
	if a.upload == nil {
		a.status = "question copied; load an image to ask it"
		return a.setFocus(fieldImage)
	}
	return a.setFocus(fieldQuestion)
}

func (a *App) scope() string {
	switch {
	case a.confirmClear:
		return scopeConfirm
	case a.showHistory:
		return scopeHistory
	default:
		return scopeForm
	}
}

// visibleFields hides the question until an image is loaded.
func (a *App) visibleFields() int {
	if a.upload == nil {
		return int(fieldImage) + 1
	}
	return int(fieldQuestion) + 1
}

func (a *App) nextField(step int) field {
	n := a.visibleFields()
	return field(((int(a.focus)+step)%n + n) % n)
}

func (a *App) setFocus(f field) tea.Cmd {
	if int(f) >= a.visibleFields() {
		f = fieldImage
	}
	a.focus = f
	var cmd tea.Cmd
	for i := range a.inputs {
		if field(i) == f {
			cmd = a.inputs[i].Focus()
			continue
		}
		a.inputs[i].Blur()
	}
	return cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	inputWidth := width - 14
	if inputWidth < 20 {
		inputWidth = 20
	}
	for i := range a.inputs {
		a.inputs[i].Width = inputWidth
	}
	a.historyTable.SetWidth(width)
	if h := height - 8; h > 3 {
		a.historyTable.SetHeight(h)
	}
}

// commands

func (a *App) loadImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		up, err := imaging.Load(path)
		if err != nil {
			a.log.Info("image rejected", zap.String("path", path), zap.Error(err))
			return imageFailedMsg{err}
		}
		return imageLoadedMsg{upload: up}
	}
}

func (a *App) askCmd(in service.AskInput) tea.Cmd {
	return func() tea.Msg {
		if a.services.Ask == nil {
			return askFailedMsg{fmt.Errorf("ask service not configured")}
		}
		ans, err := a.services.Ask.Ask(a.ctx, in)
		if err != nil {
			return askFailedMsg{err}
		}
		return answerMsg{answer: ans}
	}
}

func (a *App) similarCmd(ans service.Answer) tea.Cmd {
	if a.services.History == nil {
		return nil
	}
	return func() tea.Msg {
		matches, err := a.services.History.Similar(a.ctx, service.SimilarRequest{
			Question:    ans.Question,
			ImageSHA256: ans.ImageSHA256,
			ExcludeID:   ans.ID,
		}, similarLimit)
		if err != nil {
			return errMsg{err}
		}
		return similarMsg(matches)
	}
}

func (a *App) loadHistoryCmd() tea.Cmd {
	if a.services.History == nil {
		return func() tea.Msg { return statusMsg("history not configured") }
	}
	return func() tea.Msg {
		list, err := a.services.History.Recent(a.ctx, historyLimit)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(list)
	}
}

func (a *App) clearHistoryCmd() tea.Cmd {
	if a.services.History == nil {
		return func() tea.Msg { return errMsg{fmt.Errorf("history not configured")} }
	}
	return func() tea.Msg {
		n, err := a.services.History.Clear(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return historyClearedMsg(n)
	}
}

type imageLoadedMsg struct{ upload imaging.Upload }

type imageFailedMsg struct{ err error }

type answerMsg struct{ answer service.Answer }

type askFailedMsg struct{ err error }

type similarMsg []service.Match

type historyMsg []repository.Query

type historyClearedMsg int64

type statusMsg string

type errMsg struct{ error }
