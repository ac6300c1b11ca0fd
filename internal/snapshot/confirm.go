package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer answers the generator's yes/no questions: deleting stale working
// directories and accepting observed differences. Abstracting it keeps the
// generator runnable without a terminal.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// TerminalConfirmer prompts on Out and reads the answer from In. Anything
// other than "y" (case-insensitive) is a no.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalConfirmer creates a confirmer reading from in and prompting on
// out.
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{In: in, Out: out, reader: bufio.NewReader(in)}
}

// Confirm implements Confirmer.
func (c *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}
	fmt.Fprintf(c.Out, "%s (y/n)? ", prompt)

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// AutoConfirmer answers every prompt with a fixed response. Used for
// non-interactive invocations (generate --yes) and in tests.
type AutoConfirmer struct {
	Answer bool
}

// Confirm implements Confirmer.
func (c AutoConfirmer) Confirm(string) (bool, error) {
	return c.Answer, nil
}
