package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type resumeMode int

const (
	resumeAsk resumeMode = iota
	resumeAlways
	resumeNever
)

// prompter asks yes/no questions on the command's streams. End of input
// counts as "no".
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) confirm(question string) bool {
	fmt.Fprint(p.out, question)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
