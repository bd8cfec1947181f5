package credentials

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/Apurer/retail-ops/internal/platform/credentials"
	credentialactivities "github.com/Apurer/retail-ops/internal/platform/temporal/activities/credentials"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

type flakyDispatcher struct {
	failures int32
	calls    atomic.Int32
	err      error
}

func (d *flakyDispatcher) SendCredentialsEmail(context.Context, string, string, string) error {
	if d.calls.Add(1) <= d.failures {
		return d.err
	}
	return nil
}

func newEnv(t *testing.T, dispatcher *flakyDispatcher) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CredentialDeliveryWorkflow)
	env.RegisterActivityWithOptions(credentialactivities.NewActivities(dispatcher).SendEmail,
		activity.RegisterOptions{Name: credentialactivities.SendEmailActivityName})
	return env
}

var email = credentials.Email{To: "store@example.com", Subject: "Your store account credentials", HTML: "<p>hi</p>"}

func TestCredentialDeliveryRetriesTransientFailures(t *testing.T) {
	dispatcher := &flakyDispatcher{failures: 2, err: failure.External("mailer", errors.New("relay down"))}
	env := newEnv(t, dispatcher)

	env.ExecuteWorkflow(CredentialDeliveryWorkflow, DeliveryInput{Email: email})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, int32(3), dispatcher.calls.Load())
}

func TestCredentialDeliveryGivesUpAfterMaxAttempts(t *testing.T) {
	dispatcher := &flakyDispatcher{failures: 100, err: errors.New("relay down")}
	env := newEnv(t, dispatcher)

	env.ExecuteWorkflow(CredentialDeliveryWorkflow, DeliveryInput{Email: email})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Equal(t, DeliveryRetryPolicy.MaximumAttempts, dispatcher.calls.Load())
}

func TestCredentialDeliveryDoesNotRetryInvalidEmail(t *testing.T) {
	dispatcher := &flakyDispatcher{failures: 100, err: failure.Validation(errors.New("bad recipient"))}
	env := newEnv(t, dispatcher)

	env.ExecuteWorkflow(CredentialDeliveryWorkflow, DeliveryInput{Email: email})

	require.Error(t, env.GetWorkflowError())
	require.Equal(t, int32(1), dispatcher.calls.Load())
}
