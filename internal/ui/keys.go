package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/mtail/internal/config"
)

// Action is one interpreted key press
type Action int

const (
	ActionNone Action = iota
	ActionScrollUp
	ActionScrollDown
	ActionPageUp
	ActionPageDown
	ActionJumpToEnd
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionScrollUp:
		return "scroll-up"
	case ActionScrollDown:
		return "scroll-down"
	case ActionPageUp:
		return "page-up"
	case ActionPageDown:
		return "page-down"
	case ActionJumpToEnd:
		return "jump-to-end"
	case ActionQuit:
		return "quit"
	}
	return "none"
}

type keyMap struct {
	quit       key.Binding
	scrollUp   key.Binding
	scrollDown key.Binding
	pageUp     key.Binding
	pageDown   key.Binding
	bottom     key.Binding
}

func newKeyMap(kb config.KeybindingConfig) keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys(kb.Quit...), key.WithHelp(first(kb.Quit), "quit")),
		scrollUp:   key.NewBinding(key.WithKeys(kb.ScrollUp...), key.WithHelp(first(kb.ScrollUp), "up")),
		scrollDown: key.NewBinding(key.WithKeys(kb.ScrollDown...), key.WithHelp(first(kb.ScrollDown), "down")),
		pageUp:     key.NewBinding(key.WithKeys(kb.PageUp...), key.WithHelp(first(kb.PageUp), "page up")),
		pageDown:   key.NewBinding(key.WithKeys(kb.PageDown...), key.WithHelp(first(kb.PageDown), "page down")),
		bottom:     key.NewBinding(key.WithKeys(kb.Bottom...), key.WithHelp(first(kb.Bottom), "follow")),
	}
}

// action maps a key press to an Action, ActionNone when unbound
func (k keyMap) action(msg tea.KeyMsg) Action {
	switch {
	case key.Matches(msg, k.quit):
		return ActionQuit
	case key.Matches(msg, k.scrollUp):
		return ActionScrollUp
	case key.Matches(msg, k.scrollDown):
		return ActionScrollDown
	case key.Matches(msg, k.pageUp):
		return ActionPageUp
	case key.Matches(msg, k.pageDown):
		return ActionPageDown
	case key.Matches(msg, k.bottom):
		return ActionJumpToEnd
	}
	return ActionNone
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.scrollDown, k.scrollUp, k.pageDown, k.pageUp, k.bottom, k.quit}
}

func first(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
