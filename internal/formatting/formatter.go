package formatting

import (
	"context"
	"time"
)

// TextFormatter performs one remote formatting call. Implementations return a
// *services.RemoteCallError on failure so the pool can classify it.
type TextFormatter interface {
	Format(ctx context.Context, systemInstruction, userText string, timeout time.Duration) (string, error)
}

// FormatterFunc adapts a function to TextFormatter.
type FormatterFunc func(ctx context.Context, systemInstruction, userText string, timeout time.Duration) (string, error)

// Format calls f.
func (f FormatterFunc) Format(ctx context.Context, systemInstruction, userText string, timeout time.Duration) (string, error) {
	return f(ctx, systemInstruction, userText, timeout)
}
