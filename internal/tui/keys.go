package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type action string

const (
	scopeGlobal  = "global"
	scopeForm    = "form"
	scopeHistory = "history"
	scopeConfirm = "confirm"
)

const (
	actionQuit       action = "quit"
	actionNextField  action = "next_field"
	actionPrevField  action = "prev_field"
	actionSubmit     action = "submit"
	actionPreset     action = "preset"
	actionHistory    action = "history"
	actionToggleKey  action = "toggle_key"
	actionClose      action = "close"
	actionReuse      action = "reuse"
	actionClear      action = "clear"
	actionConfirmYes action = "confirm_yes"
	actionConfirmNo  action = "confirm_no"
)

type binding struct {
	Action action
	Keys   []string
	Help   string
	Scopes []string
}

// keyRegistry resolves key names per scope, falling back to global.
// Form bindings are all control keys so plain typing reaches the inputs.
type keyRegistry struct {
	bindingsByScope map[string][]*binding
	indexByScope    map[string]map[string]*binding
}

func newKeyRegistry() *keyRegistry {
	r := &keyRegistry{
		bindingsByScope: make(map[string][]*binding),
		indexByScope:    make(map[string]map[string]*binding),
	}
	for _, b := range defaultBindings() {
		r.register(b)
	}
	return r
}

func defaultBindings() []binding {
	return []binding{
		{Action: actionQuit, Keys: []string{"ctrl+c"}, Help: "quit", Scopes: []string{scopeGlobal}},
		{Action: actionNextField, Keys: []string{"tab"}, Help: "next field", Scopes: []string{scopeForm}},
		{Action: actionPrevField, Keys: []string{"shift+tab"}, Help: "prev field", Scopes: []string{scopeForm}},
		{Action: actionSubmit, Keys: []string{"enter"}, Help: "submit", Scopes: []string{scopeForm}},
		{Action: actionPreset, Keys: []string{"ctrl+p"}, Help: "example question", Scopes: []string{scopeForm}},
		{Action: actionToggleKey, Keys: []string{"ctrl+t"}, Help: "show/hide key", Scopes: []string{scopeForm}},
		{Action: actionHistory, Keys: []string{"ctrl+r"}, Help: "history", Scopes: []string{scopeForm}},
		{Action: actionQuit, Keys: []string{"esc"}, Help: "quit", Scopes: []string{scopeForm}},
		{Action: actionReuse, Keys: []string{"enter"}, Help: "ask again", Scopes: []string{scopeHistory}},
		{Action: actionClear, Keys: []string{"x"}, Help: "clear history", Scopes: []string{scopeHistory}},
		{Action: actionClose, Keys: []string{"esc", "ctrl+r"}, Help: "back", Scopes: []string{scopeHistory}},
		{Action: actionConfirmYes, Keys: []string{"y", "Y"}, Help: "yes", Scopes: []string{scopeConfirm}},
		{Action: actionConfirmNo, Keys: []string{"n", "N", "esc"}, Help: "no", Scopes: []string{scopeConfirm}},
	}
}

func (r *keyRegistry) register(b binding) {
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*binding)
		}
		if r.scopeHasAnyKey(scope, b.Keys) {
			continue
		}
		copyBinding := b
		copyBinding.Keys = append([]string(nil), b.Keys...)
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *keyRegistry) lookup(keyName, scope string) *binding {
	if r == nil || keyName == "" {
		return nil
	}
	if b := r.indexByScope[scope][keyName]; b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.indexByScope[scopeGlobal][keyName]
	}
	return nil
}

func (r *keyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	for _, k := range keys {
		if _, ok := r.indexByScope[scope][k]; ok {
			return true
		}
	}
	return false
}

// helpBindings lists scope bindings followed by global ones.
func (r *keyRegistry) helpBindings(scope string) []key.Binding {
	items := append([]*binding(nil), r.bindingsByScope[scope]...)
	if scope != scopeGlobal {
		items = append(items, r.bindingsByScope[scopeGlobal]...)
	}
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func (r *keyRegistry) helpLine(scope string) string {
	var parts []string
	for _, kb := range r.helpBindings(scope) {
		h := kb.Help()
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
