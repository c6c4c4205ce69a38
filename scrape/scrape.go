// Package scrape runs the keyword research script for a single keyword.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds one script run.
const DefaultTimeout = 2 * time.Minute

const maxStderr = 2048

// ErrEmptyKeyword is returned when the keyword is blank.
var ErrEmptyKeyword = errors.New("keyword is required")

// Runner invokes Script with the keyword as its only argument. The script is
// expected to print its result as JSON on stdout.
type Runner struct {
	Python  string // interpreter, default "python3"
	Script  string
	Dir     string // working directory, default the current one
	Timeout time.Duration
}

// Run executes the script and returns its output. Output that is not valid
// JSON is returned as a JSON string.
func (r *Runner) Run(ctx context.Context, keyword string) (json.RawMessage, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	python := r.Python
	if python == "" {
		python = "python3"
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, python, r.Script, keyword)
	cmd.Dir = r.Dir
	// grandchildren holding stdout must not outlive the deadline
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("scrape %q: %w", keyword, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		if msg != "" {
			return nil, fmt.Errorf("scrape %q: %w: %s", keyword, err, msg)
		}
		return nil, fmt.Errorf("scrape %q: %w", keyword, err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) > 0 && json.Valid(out) {
		return json.RawMessage(out), nil
	}
	b, err := json.Marshal(string(out))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
