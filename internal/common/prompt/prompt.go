// Package prompt asks the user to confirm destructive operations.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks a yes/no question. A false answer means the operation must not run.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// Terminal reads answers line by line from In and writes questions to Out.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Confirm prints message followed by "(y/N)" and returns true for y or yes.
// End of input counts as no.
func (t *Terminal) Confirm(message string) (bool, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}

	fmt.Fprintf(t.Out, "%s (y/N): ", message)
	response, err := t.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		if response == "" {
			fmt.Fprintln(t.Out)
			return false, nil
		}
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}

// Static answers every question with the same value. Used for --confirm.
type Static bool

func (s Static) Confirm(string) (bool, error) {
	return bool(s), nil
}
