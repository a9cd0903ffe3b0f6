// Package console prints alerts instead of delivering them.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/newthinker/coinalert/internal/notifier"
)

const separator = "----"

// Console writes each message to an io.Writer followed by a separator line.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a console notifier. A nil writer means stdout.
func New(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Init(cfg notifier.Config) error {
	if c.w == nil {
		c.w = os.Stdout
	}
	return nil
}

func (c *Console) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.w, "%s\n%s\n", text, separator); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
