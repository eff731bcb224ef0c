// Package encourage produces the short praise line attached to a new task.
// The generative-text service is an external collaborator; this package only
// defines its contract and the offline fallback.
package encourage

import (
	"context"
	"fmt"
)

// Generator produces one encouragement sentence for a completed task.
type Generator interface {
	Encouragement(ctx context.Context, memberName, taskDescription string) (string, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, memberName, taskDescription string) (string, error)

// Encouragement implements Generator.
func (f Func) Encouragement(ctx context.Context, memberName, taskDescription string) (string, error) {
	return f(ctx, memberName, taskDescription)
}

// Fallback is the offline generator used when no text service is configured
// or the service call fails.
type Fallback struct{}

// Encouragement implements Generator.
func (Fallback) Encouragement(_ context.Context, memberName, taskDescription string) (string, error) {
	return fmt.Sprintf("Thank you, %s, for %s! That's a huge help!", memberName, taskDescription), nil
}
