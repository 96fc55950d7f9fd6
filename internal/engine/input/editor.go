package input

import "unicode/utf8"

// DefaultMaxRunes bounds the prompt line.
const DefaultMaxRunes = 200

// LineEditor is a single-line text buffer fed by text input events.
type LineEditor struct {
	buf      []rune
	MaxRunes int
}

// NewLineEditor returns an empty editor with the default limit.
func NewLineEditor() *LineEditor {
	return &LineEditor{MaxRunes: DefaultMaxRunes}
}

// Insert appends text, dropping control characters and anything past MaxRunes.
func (l *LineEditor) Insert(text string) {
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if r == utf8.RuneError || r < 0x20 || r == 0x7f {
			continue
		}
		if l.MaxRunes > 0 && len(l.buf) >= l.MaxRunes {
			return
		}
		l.buf = append(l.buf, r)
	}
}

// Backspace removes the last rune, if any.
func (l *LineEditor) Backspace() {
	if len(l.buf) > 0 {
		l.buf = l.buf[:len(l.buf)-1]
	}
}

// Clear empties the buffer.
func (l *LineEditor) Clear() {
	l.buf = l.buf[:0]
}

// Text returns the current contents.
func (l *LineEditor) Text() string {
	return string(l.buf)
}

// Len returns the number of runes in the buffer.
func (l *LineEditor) Len() int {
	return len(l.buf)
}

// Take returns the contents and clears the buffer.
func (l *LineEditor) Take() string {
	s := l.Text()
	l.Clear()
	return s
}
