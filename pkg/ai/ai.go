package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindwell-ai/mindwell/pkg/types"
)

// WorkflowDriver produces the assistant reply for one chat turn.
type WorkflowDriver interface {
	Name() string
	Run(ctx context.Context, wctx *types.WorkflowContext) (*types.WorkflowReply, error)
}

var (
	ErrWorkflowUnavailable     = errors.New("workflow unavailable")
	ErrWorkflowError           = errors.New("workflow error")
	ErrWorkflowInvalidResponse = errors.New("workflow invalid response")
)

// MaxErrorBodyLength bounds how much of an upstream error body is kept for logs and debug output.
const MaxErrorBodyLength = 512

// WorkflowStatusError is returned when the workflow answered with a non 2xx status.
type WorkflowStatusError struct {
	Status int
	Body   string
}

func (e *WorkflowStatusError) Error() string {
	return fmt.Sprintf("workflow responded with status %d: %s", e.Status, e.Body)
}

func (e *WorkflowStatusError) Is(target error) bool {
	return target == ErrWorkflowError
}

func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrWorkflowUnavailable, err)
}

func InvalidResponse(reason string) error {
	return fmt.Errorf("%w: %s", ErrWorkflowInvalidResponse, reason)
}
