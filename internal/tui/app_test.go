package tui

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/gvoss/internal/database"
	"github.com/jask/gvoss/internal/database/repository"
	"github.com/jask/gvoss/internal/service"
	"github.com/jask/gvoss/internal/vqa"
)

type stubProvider struct {
	calls int
	res   vqa.Result
	err   error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Answer(ctx context.Context, req vqa.Request) (vqa.Result, error) {
	p.calls++
	return p.res, p.err
}

func writeImage(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "satellite.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(a *App, msg tea.Msg) tea.Cmd {
	_, cmd := a.Update(msg)
	return cmd
}

// loadImage types a path into the image field and feeds the load result back.
func loadImage(t *testing.T, a *App, path string) {
	t.Helper()
	require.Equal(t, fieldImage, a.focus)
	send(a, runes(path))
	cmd := send(a, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	send(a, cmd())
}

func TestFormAsksAndShowsAnswer(t *testing.T) {
	best := vqa.Prediction{Label: "yes", Score: 0.876}
	prov := &stubProvider{res: vqa.Result{Best: best, Candidates: []vqa.Prediction{best, {Label: "no", Score: 0.1}}}}
	app := New(context.Background(), Services{Ask: &service.AskService{Provider: prov}}, Options{})

	view := app.View()
	require.Contains(t, view, "Enter Your Hugging Face API Key")
	require.Contains(t, view, "Your key is needed to talk to the free AI model.")
	require.NotContains(t, view, "Ask a question about this image:")
	require.Equal(t, fieldKey, app.focus)

	send(app, runes("hf_secret"))
	require.NotContains(t, app.View(), "hf_secret")
	send(app, keyMsg(tea.KeyTab))

	loadImage(t, app, writeImage(t))
	require.NotNil(t, app.upload)
	require.Equal(t, fieldQuestion, app.focus)
	view = app.View()
	require.Contains(t, view, "Your Uploaded Image: satellite.png (4x3)")
	require.Contains(t, view, "Ask a question about this image:")

	send(app, runes("Are there any rivers visible?"))
	cmd := send(app, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	require.True(t, app.asking)
	require.Contains(t, app.View(), "...AI is thinking...")

	send(app, cmd())
	require.False(t, app.asking)
	require.Equal(t, 1, prov.calls)
	view = app.View()
	require.Contains(t, view, "AI Answer:")
	require.Contains(t, view, "yes (Confidence: 0.88)")
	require.Contains(t, view, "Also possible: no 0.10")
}

func TestFormMissingKey(t *testing.T) {
	prov := &stubProvider{}
	app := New(context.Background(), Services{Ask: &service.AskService{Provider: prov}}, Options{})
	send(app, keyMsg(tea.KeyTab))
	loadImage(t, app, writeImage(t))

	// no question, nothing happens
	require.Nil(t, send(app, keyMsg(tea.KeyEnter)))
	require.NotContains(t, app.View(), vqa.MissingKeyMessage)

	send(app, runes("Is there a road?"))
	require.Nil(t, send(app, keyMsg(tea.KeyEnter)))
	require.Contains(t, app.View(), vqa.MissingKeyMessage)
	require.NotContains(t, app.View(), "AI Answer:")
	require.Zero(t, prov.calls)
}

func TestFormShowsAPIErrorAsAnswer(t *testing.T) {
	prov := &stubProvider{err: &vqa.APIError{Message: "Model is currently loading"}}
	app := New(context.Background(), Services{Ask: &service.AskService{Provider: prov}}, Options{APIKey: "hf_x"})
	require.Equal(t, fieldImage, app.focus)
	loadImage(t, app, writeImage(t))

	send(app, runes("what is this"))
	cmd := send(app, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	send(app, cmd())
	require.Contains(t, app.View(), "Error from API: Model is currently loading")
}

func TestFormRejectsUnsupportedImage(t *testing.T) {
	app := New(context.Background(), Services{}, Options{APIKey: "hf_x"})
	loadImage(t, app, "notes.txt")
	require.Nil(t, app.upload)
	require.Contains(t, app.View(), "unsupported file type")
	require.NotContains(t, app.View(), "Ask a question about this image:")
	require.Equal(t, fieldImage, app.focus)

	send(app, keyMsg(tea.KeyCtrlP))
	require.Equal(t, "load an image first", app.status)
}

func TestFormPresetQuestion(t *testing.T) {
	app := New(context.Background(), Services{}, Options{APIKey: "hf_x", Questions: []string{"How many boats?", "Any clouds?"}})
	loadImage(t, app, writeImage(t))

	send(app, keyMsg(tea.KeyCtrlP))
	require.Equal(t, "How many boats?", app.inputs[fieldQuestion].Value())
	send(app, keyMsg(tea.KeyCtrlP))
	require.Equal(t, "Any clouds?", app.inputs[fieldQuestion].Value())
}

func TestFocusCyclesOnlyVisibleFields(t *testing.T) {
	app := New(context.Background(), Services{}, Options{})
	require.Equal(t, fieldKey, app.focus)
	send(app, keyMsg(tea.KeyTab))
	require.Equal(t, fieldImage, app.focus)
	send(app, keyMsg(tea.KeyTab))
	require.Equal(t, fieldKey, app.focus)
	send(app, keyMsg(tea.KeyShiftTab))
	require.Equal(t, fieldImage, app.focus)
}

func TestHistoryReuseAndClear(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	queries := repository.NewQueryRepo(db)
	prov := &stubProvider{res: vqa.Result{Best: vqa.Prediction{Label: "2", Score: 0.5}}}
	app := New(ctx, Services{
		Ask:     &service.AskService{Provider: prov, Queries: queries},
		History: &service.HistoryService{DB: db, Queries: queries},
	}, Options{APIKey: "hf_x"})
	loadImage(t, app, writeImage(t))

	send(app, runes("How many roads?"))
	cmd := send(app, keyMsg(tea.KeyEnter))
	similar := send(app, cmd())
	require.NotNil(t, similar)
	send(app, similar())

	cmd = send(app, keyMsg(tea.KeyCtrlR))
	require.True(t, app.showHistory)
	send(app, cmd())
	require.Len(t, app.history, 1)
	require.Contains(t, app.View(), "How many roads?")

	// typing in history does not reach the form
	send(app, runes("x"))
	require.True(t, app.confirmClear)
	require.Contains(t, app.View(), "Clear history?")
	send(app, runes("n"))
	require.False(t, app.confirmClear)

	send(app, keyMsg(tea.KeyEnter))
	require.False(t, app.showHistory)
	require.Equal(t, "How many roads?", app.inputs[fieldQuestion].Value())
	require.Equal(t, fieldQuestion, app.focus)

	send(app, keyMsg(tea.KeyCtrlR))
	send(app, runes("x"))
	cmd = send(app, runes("y"))
	require.NotNil(t, cmd)
	reload := send(app, cmd())
	require.Contains(t, app.status, "history cleared (1 removed)")
	send(app, reload())
	require.Empty(t, app.history)
	require.Contains(t, app.View(), "No questions asked yet.")
}

func TestQuitKeys(t *testing.T) {
	app := New(context.Background(), Services{}, Options{})
	cmd := send(app, keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}
