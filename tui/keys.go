package tui

import "github.com/charmbracelet/bubbles/key"

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Play      key.Binding
	Mode      key.Binding
	Signature key.Binding
	NextRaga  key.Binding
	PrevRaga  key.Binding
	Suggest   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Play:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/stop")),
	Mode:      Key("mode", "m"),
	Signature: Key("time signature", "t"),
	NextRaga:  Key("next raga", "r"),
	PrevRaga:  Key("previous raga", "R"),
	Suggest:   Key("raga for this hour", "s"),
	Help:      Key("help", "?"),
	Quit:      Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Mode, k.NextRaga, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Mode, k.Signature},
		{k.NextRaga, k.PrevRaga, k.Suggest},
		{k.Help, k.Quit},
	}
}
