package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(message string) bool

func (f ConfirmerFunc) Confirm(message string) bool { return f(message) }

// StaticConfirmer always gives the same answer.
type StaticConfirmer bool

func (c StaticConfirmer) Confirm(string) bool { return bool(c) }

// PromptConfirmer writes the question to out and reads a y/N answer from in.
// Anything other than y or yes, including EOF, declines.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in *bufio.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out}
}

func (p *PromptConfirmer) Confirm(message string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
