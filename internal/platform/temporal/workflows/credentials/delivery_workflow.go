package credentials

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/retail-ops/internal/platform/credentials"
	credentialactivities "github.com/Apurer/retail-ops/internal/platform/temporal/activities/credentials"
)

const (
	// DeliveryWorkflowName is the public identifier for registering the workflow.
	DeliveryWorkflowName = "credentials.workflows.Delivery"
	// TaskQueue is consumed by the worker delivering credentials.
	TaskQueue = "CREDENTIAL_DELIVERY"
)

// DeliveryInput carries the rendered e-mail plus the trace it belongs to.
type DeliveryInput struct {
	Email   credentials.Email
	TraceID string
}

// DeliveryRetryPolicy is applied to the e-mail activity.
var DeliveryRetryPolicy = temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    30 * time.Second,
	MaximumAttempts:    5,
}

// CredentialDeliveryWorkflow sends the credential e-mail with retries.
func CredentialDeliveryWorkflow(ctx workflow.Context, input DeliveryInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("CredentialDeliveryWorkflow started", withTraceID(input.TraceID, "to", input.Email.To)...)
	policy := DeliveryRetryPolicy
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &policy,
	}
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), credentialactivities.SendEmailActivityName, input.Email).Get(ctx, nil)
	if err != nil {
		logger.Error("CredentialDeliveryWorkflow failed", withTraceID(input.TraceID, "to", input.Email.To, "error", err)...)
		return err
	}
	logger.Info("CredentialDeliveryWorkflow completed", withTraceID(input.TraceID, "to", input.Email.To)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
