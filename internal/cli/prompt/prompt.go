// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/gfsave/internal/logging"
)

// Sentinel errors for prompts.
var (
	ErrNoItems            = errors.New("nothing to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Prompter asks the user questions on a reader/writer pair.
type Prompter struct {
	reader      *bufio.Reader
	writer      io.Writer
	interactive bool
}

// New creates a Prompter on stdin and stdout. It is interactive when both
// are terminals.
func New() *Prompter {
	return &Prompter{
		reader:      bufio.NewReader(os.Stdin),
		writer:      os.Stdout,
		interactive: logging.IsTTY(os.Stdin) && logging.IsTTY(os.Stdout),
	}
}

// NewWithIO creates a non-interactive Prompter for testing.
func NewWithIO(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Interactive reports whether a terminal is attached.
func (p *Prompter) Interactive() bool {
	return p.interactive
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrSelectionCancelled
		}
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. An empty answer returns def; EOF
// returns false.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	for {
		fmt.Fprintf(p.writer, "%s [%s]: ", question, hint)
		answer, err := p.readLine()
		if errors.Is(err, ErrSelectionCancelled) {
			fmt.Fprintln(p.writer)
			return false, nil
		}
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.writer, "Please answer y or n.")
	}
}

// Select shows a numbered list and returns the chosen index. A single item
// is selected without prompting; an empty answer picks the first.
func (p *Prompter) Select(title string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, ErrNoItems
	}
	if len(items) == 1 {
		return 0, nil
	}

	fmt.Fprintf(p.writer, "%s:\n", title)
	for i, item := range items {
		fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, item)
	}
	fmt.Fprintf(p.writer, "Select [1]: ")

	input, err := p.readLine()
	if err != nil {
		return -1, err
	}
	if input == "" {
		return 0, nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return -1, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}
	if selection < 1 || selection > len(items) {
		return -1, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(items))
	}
	return selection - 1, nil
}

// Pick lets the user choose an item with a fuzzy finder when a terminal is
// attached, falling back to Select otherwise. preview may be nil.
func (p *Prompter) Pick(title string, items []string, preview func(i int) string) (int, error) {
	if !p.interactive {
		return p.Select(title, items)
	}
	if len(items) == 0 {
		return -1, ErrNoItems
	}

	opts := []fuzzyfinder.Option{
		fuzzyfinder.WithPromptString(title + "> "),
	}
	if preview != nil {
		opts = append(opts, fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return preview(i)
		}))
	}

	idx, err := fuzzyfinder.Find(items, func(i int) string { return items[i] }, opts...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return -1, ErrSelectionCancelled
		}
		return -1, errors.Wrap(err, "interactive selection failed")
	}
	return idx, nil
}
