// Package replline wraps readline for the REPL's prompt, line history, and
// EOF handling, so the top-level command loop only deals with trimmed
// lines and a single io.EOF sentinel.
package replline

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Prompt is the fixed REPL prompt, including its trailing space.
const Prompt = "Sqlite-rs > "

// Reader reads one trimmed line at a time, keeping history across calls.
type Reader struct {
	rl *readline.Instance
}

// New opens a readline instance against the process's stdin/stdout.
func New() (*Reader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, err
	}
	return &Reader{rl: rl}, nil
}

// ReadLine returns the next trimmed input line. It returns io.EOF when the
// user closes the input stream (Ctrl-D).
func (r *Reader) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", io.EOF
	}
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Close releases the underlying terminal state.
func (r *Reader) Close() error {
	return r.rl.Close()
}
