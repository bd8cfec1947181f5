package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/retail-ops/internal/platform/credentials"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ credentials.Notifier = (*Notifier)(nil)

// Notifier delivers credential e-mails through the Temporal workflow and waits for the result.
type Notifier struct {
	client    client.Client
	taskQueue string
	wait      time.Duration
}

// NewNotifier wires a Temporal client. wait bounds how long a request blocks on delivery.
func NewNotifier(c client.Client, wait time.Duration) *Notifier {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &Notifier{client: c, taskQueue: TaskQueue, wait: wait}
}

func (n *Notifier) Deliver(ctx context.Context, email credentials.Email) error {
	if n == nil || n.client == nil {
		return errors.New("temporal credential notifier not configured")
	}
	traceID := traceIDFrom(ctx)
	options := client.StartWorkflowOptions{
		ID:        workflowID(email, traceID),
		TaskQueue: n.taskQueue,
		// A retried request within the same trace must not send the e-mail twice.
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	run, err := n.client.ExecuteWorkflow(ctx, options, DeliveryWorkflowName, DeliveryInput{Email: email, TraceID: traceID})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return failure.External("temporal", err)
		}
		run = n.client.GetWorkflow(ctx, options.ID, alreadyStarted.RunId)
	}
	waitCtx, cancel := context.WithTimeout(ctx, n.wait)
	defer cancel()
	if err := run.Get(waitCtx, nil); err != nil {
		return failure.External("temporal", fmt.Errorf("credential delivery %s: %w", run.GetID(), err))
	}
	return nil
}

func workflowID(email credentials.Email, traceID string) string {
	sum := sha256.Sum256([]byte(email.To + "|" + email.Subject))
	if traceID == "" {
		traceID = fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("credential-delivery-%s-%s", hex.EncodeToString(sum[:8]), traceID)
}

func traceIDFrom(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
