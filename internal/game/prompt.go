package game

import (
	"github.com/Faultbox/orbitforge/internal/engine/input"
)

// Submitter accepts a prompt for generation.
type Submitter interface {
	Submit(prompt string) error
}

// Prompt is the editable prompt line. The text is cleared only when a
// submission is accepted, so a rejected prompt can be fixed and resent.
type Prompt struct {
	editor *input.LineEditor
	target Submitter
}

// NewPrompt returns an empty prompt line submitting to target.
func NewPrompt(target Submitter) *Prompt {
	return &Prompt{editor: input.NewLineEditor(), target: target}
}

// Type appends text.
func (p *Prompt) Type(text string) { p.editor.Insert(text) }

// Backspace deletes the last character.
func (p *Prompt) Backspace() { p.editor.Backspace() }

// Clear empties the line.
func (p *Prompt) Clear() { p.editor.Clear() }

// Text returns the current line.
func (p *Prompt) Text() string { return p.editor.Text() }

// Enter submits the line.
func (p *Prompt) Enter() error {
	if err := p.target.Submit(p.editor.Text()); err != nil {
		return err
	}
	p.editor.Clear()
	return nil
}
