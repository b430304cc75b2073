// Package console implements session.Console on a real terminal. Keys are
// read in raw mode and passwords without echo when stdin is a TTY; piped
// input falls back to line reads so sessions can be scripted.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/riteshkumar/terminal-bank/internal/session"
)

const (
	keyInterrupt = 0x03
	keyEOT       = 0x04
)

type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool

	tones  map[session.Tone]*color.Color
	prompt *color.Color
}

// New returns a console on stdin and stdout.
func New() *Terminal {
	fd := int(os.Stdin.Fd())
	return NewWithIO(os.Stdin, os.Stdout, fd, term.IsTerminal(fd))
}

// NewWithIO builds a console over arbitrary streams. fd is only used when
// isTTY is set.
func NewWithIO(in io.Reader, out io.Writer, fd int, isTTY bool) *Terminal {
	return &Terminal{
		in:    bufio.NewReader(in),
		out:   out,
		fd:    fd,
		isTTY: isTTY,
		tones: map[session.Tone]*color.Color{
			session.ToneInfo:    color.New(color.FgBlue),
			session.ToneSuccess: color.New(color.FgGreen),
			session.ToneWarning: color.New(color.FgYellow),
			session.ToneError:   color.New(color.FgRed),
		},
		prompt: color.New(color.FgCyan),
	}
}

func (t *Terminal) Println(tone session.Tone, msg string) {
	c, ok := t.tones[tone]
	if !ok {
		fmt.Fprintln(t.out, msg)
		return
	}
	c.Fprintln(t.out, msg)
}

func (t *Terminal) showPrompt(prompt string) {
	t.prompt.Fprint(t.out, prompt)
}

func (t *Terminal) ReadLine(prompt string) (string, error) {
	t.showPrompt(prompt)
	return t.readLine()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) ReadHidden(prompt string) (string, error) {
	t.showPrompt(prompt)
	if !t.isTTY {
		return t.readLine()
	}

	password, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (t *Terminal) ReadNumber(prompt string) (int, error) {
	t.showPrompt(prompt)
	for {
		line, err := t.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil {
			return n, nil
		}
		t.showPrompt("Invalid input. Please try again > ")
	}
}

func (t *Terminal) ReadKey(prompt string) (rune, error) {
	t.showPrompt(prompt)
	if !t.isTTY {
		line, err := t.readLine()
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return '\n', nil
		}
		return unicode.ToLower([]rune(line)[0]), nil
	}

	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return 0, err
	}
	defer term.Restore(t.fd, state)

	key, _, err := t.in.ReadRune()
	if err != nil {
		return 0, err
	}
	if key == keyInterrupt || key == keyEOT {
		fmt.Fprint(t.out, "\r\n")
		return 0, io.EOF
	}
	if unicode.IsPrint(key) {
		fmt.Fprintf(t.out, "%c", key)
	}
	fmt.Fprint(t.out, "\r\n")
	return unicode.ToLower(key), nil
}
