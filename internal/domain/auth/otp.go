package auth

import "strings"

const OtpLength = 6

// OtpCells models the six single-digit OTP inputs and the focused cell.
type OtpCells struct {
	cells [OtpLength]string
	focus int
}

// Input writes into cell index. Non-digits are dropped and only the first digit is kept.
// A digit advances focus to the next cell unless index is the last one; an empty value
// clears the cell.
func (o *OtpCells) Input(index int, value string) {
	if index < 0 || index >= OtpLength {
		return
	}
	d := Digits(value)
	if d == "" {
		o.cells[index] = ""
		o.focus = index
		return
	}
	o.cells[index] = d[:1]
	o.focus = index
	if index < OtpLength-1 {
		o.focus = index + 1
	}
}

// Backspace on an empty cell clears and focuses the previous one.
func (o *OtpCells) Backspace(index int) {
	if index < 0 || index >= OtpLength {
		return
	}
	if o.cells[index] != "" {
		o.cells[index] = ""
		o.focus = index
		return
	}
	if index > 0 {
		o.cells[index-1] = ""
		o.focus = index - 1
	}
}

// Paste resets the cells and distributes up to six digits left-to-right from cell 0.
func (o *OtpCells) Paste(text string) {
	d := Digits(text)
	if len(d) > OtpLength {
		d = d[:OtpLength]
	}
	o.Clear()
	for i, r := range d {
		o.cells[i] = string(r)
	}
	switch {
	case len(d) == 0:
		o.focus = 0
	case len(d) >= OtpLength:
		o.focus = OtpLength - 1
	default:
		o.focus = len(d)
	}
}

// Clear empties all cells and resets focus to the first cell.
func (o *OtpCells) Clear() {
	o.cells = [OtpLength]string{}
	o.focus = 0
}

// Complete reports whether every cell holds a digit.
func (o *OtpCells) Complete() bool {
	for _, c := range o.cells {
		if c == "" {
			return false
		}
	}
	return true
}

// Code concatenates the cells.
func (o *OtpCells) Code() string {
	return strings.Join(o.cells[:], "")
}

// Focus returns the focused cell index.
func (o *OtpCells) Focus() int {
	return o.focus
}

// Cells returns a copy of the cell values.
func (o *OtpCells) Cells() []string {
	out := make([]string, OtpLength)
	copy(out, o.cells[:])
	return out
}
