package launcher

import (
	"context"

	"github.com/iudanet/guardian/internal/client/iocli"
)

// TerminalConfirmer asks the user on the terminal.
// Without a terminal it always declines.
type TerminalConfirmer struct {
	io iocli.IO
}

// NewTerminalConfirmer creates a confirmer on top of io.
func NewTerminalConfirmer(io iocli.IO) *TerminalConfirmer {
	return &TerminalConfirmer{io: io}
}

// Confirm asks prompt and reports an explicit yes.
func (c *TerminalConfirmer) Confirm(_ context.Context, prompt string) bool {
	if !c.io.IsInteractive() {
		return false
	}
	ok, err := c.io.Confirm(prompt)
	return err == nil && ok
}
