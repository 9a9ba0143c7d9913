package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// terminalPrompter answers prompt() from the user's terminal, with line
// editing when stdin is a terminal and plain line reads otherwise.
type terminalPrompter struct {
	line   *liner.State
	reader *bufio.Reader
	out    io.Writer
}

func newTerminalPrompter() *terminalPrompter {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		ln := liner.NewLiner()
		ln.SetCtrlCAborts(true)
		return &terminalPrompter{line: ln}
	}
	return &terminalPrompter{reader: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// Prompt implements intrinsic.Prompter. Ctrl-C and end of input cancel.
func (p *terminalPrompter) Prompt(message string) (string, bool, error) {
	if message != "" {
		message += " "
	}
	if p.line != nil {
		text, err := p.line.Prompt(message)
		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return "", false, nil
		case err != nil:
			return "", false, err
		}
		p.line.AppendHistory(text)
		return text, true, nil
	}

	fmt.Fprint(p.out, message)
	text, err := p.reader.ReadString('\n')
	if errors.Is(err, io.EOF) && text == "" {
		return "", false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	return strings.TrimRight(text, "\r\n"), true, nil
}

func (p *terminalPrompter) Close() {
	if p.line != nil {
		p.line.Close()
	}
}
