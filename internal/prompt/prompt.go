// Package prompt asks the user yes/no questions.
package prompt

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// AnswerProvider supplies the raw answer to a question.
type AnswerProvider interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Fixed answers every question with the same string. The CLI uses it for --yes.
type Fixed string

func (f Fixed) Answer(context.Context, string) (string, error) { return string(f), nil }

// Terminal prints questions to an output and reads one line per answer from
// an input. It keeps a single buffered reader so input typed ahead is not
// lost between questions.
type Terminal struct {
	out    io.Writer
	reader *bufio.Reader

	// mu guards pending, a read left running by a cancelled Answer.
	mu      sync.Mutex
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewTerminal returns a Terminal reading answers from in and writing prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{out: out, reader: bufio.NewReader(in)}
}

// Answer prints "question [y/N]: " and returns the line read. EOF yields an
// empty answer.
//
// A blocking read cannot be interrupted: when ctx ends first, the reading
// goroutine stays blocked on the input until a line or EOF arrives, and that
// line becomes the answer to the next question.
func (t *Terminal) Answer(ctx context.Context, question string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(t.out, "%s [y/N]: ", question); err != nil {
		return "", errors.RuntimeError("failed to write prompt").WithCause(err).Build()
	}

	done := t.pending
	if done == nil {
		done = make(chan readResult, 1)
		go func() {
			line, err := t.reader.ReadString('\n')
			done <- readResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		t.pending = done
		return "", ctx.Err()
	case r := <-done:
		t.pending = nil
		if r.err != nil && !stderrors.Is(r.err, io.EOF) {
			return "", errors.RuntimeError("failed to read answer").WithCause(r.err).Build()
		}
		return r.line, nil
	}
}

// AskYesNo asks question through answers and reports whether the reply was
// affirmative ("y" or "yes", any case). Anything else, including an empty
// reply, is a no.
func AskYesNo(ctx context.Context, question string, answers AnswerProvider) (bool, error) {
	reply, err := answers.Answer(ctx, question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
