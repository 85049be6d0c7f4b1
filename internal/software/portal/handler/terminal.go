package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const terminalHelp = `actions:
  city <name> | change-city | phone <digits> | login | go-register
  register-field <field> <value> | register | back | submit
  otp-digit <index> <digit> | otp-backspace <index> | otp-paste <code> | verify | resend
  period <all|today|week|month> | leaderboard | close-leaderboard | retry-leaderboard
  edit-plate | check-plate <plate> | confirm-car | save-car <brand> <model> <year> | close-plate
  logout | restore | help | quit`

// Terminal reads one action per line until quit, EOF or ctx is done.
type Terminal struct {
	handler *PortalHandler
	in      io.Reader
	out     io.Writer
}

func NewTerminal(handler *PortalHandler, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{handler: handler, in: in, out: out}
}

func (t *Terminal) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := t.handle(line); quit {
				return nil
			}
		}
	}
}

func (t *Terminal) handle(line string) (quit bool) {
	fields, err := splitArgs(line)
	if err != nil {
		fmt.Fprintln(t.out, "! "+err.Error())
		return false
	}
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(t.out, terminalHelp)
		return false
	}

	if err := t.handler.Dispatch(fields[0], fields[1:]); err != nil {
		if errors.Is(err, ErrUnknownAction) {
			fmt.Fprintln(t.out, "! "+err.Error()+" (type help)")
			return false
		}
		fmt.Fprintln(t.out, "! "+err.Error())
	}
	return false
}

var errUnclosedQuote = errors.New("unclosed quote")

// splitArgs splits on whitespace; double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				out = append(out, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quoted {
		return nil, errUnclosedQuote
	}
	if started {
		out = append(out, cur.String())
	}
	return out, nil
}
