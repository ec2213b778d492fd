package tui

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyLookupByScope(t *testing.T) {
	r := newKeyRegistry()

	b := r.lookup("enter", scopeForm)
	require.NotNil(t, b)
	require.Equal(t, actionSubmit, b.Action)

	b = r.lookup("enter", scopeHistory)
	require.NotNil(t, b)
	require.Equal(t, actionReuse, b.Action)

	// plain letters must reach the text inputs
	require.Nil(t, r.lookup("x", scopeForm))
	require.Nil(t, r.lookup("y", scopeForm))

	b = r.lookup("ctrl+c", scopeConfirm)
	require.NotNil(t, b)
	require.Equal(t, actionQuit, b.Action)

	b = r.lookup("esc", scopeConfirm)
	require.NotNil(t, b)
	require.Equal(t, actionConfirmNo, b.Action)

	require.Nil(t, r.lookup("", scopeForm))
	var nilRegistry *keyRegistry
	require.Nil(t, nilRegistry.lookup("enter", scopeForm))
}

func TestKeyRegisterKeepsFirstBinding(t *testing.T) {
	r := newKeyRegistry()
	r.register(binding{Action: actionQuit, Keys: []string{"enter"}, Help: "quit", Scopes: []string{scopeForm}})
	require.Equal(t, actionSubmit, r.lookup("enter", scopeForm).Action)

	r.register(binding{Action: actionClear, Keys: []string{"ctrl+x"}, Help: "clear", Scopes: []string{" ", scopeForm}})
	require.Equal(t, actionClear, r.lookup("ctrl+x", scopeForm).Action)
}

func TestHelpLine(t *testing.T) {
	r := newKeyRegistry()
	line := r.helpLine(scopeForm)
	require.Contains(t, line, "[tab] next field")
	require.Contains(t, line, "[ctrl+p] example question")
	require.Contains(t, line, "[ctrl+c] quit")

	history := r.helpBindings(scopeHistory)
	require.Equal(t, "enter", history[0].Help().Key)
	require.Equal(t, "ctrl+c", history[len(history)-1].Help().Key)
}
