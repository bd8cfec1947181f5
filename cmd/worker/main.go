package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/retail-ops/internal/app/api"
	"github.com/Apurer/retail-ops/internal/platform/mailer"
	platformobservability "github.com/Apurer/retail-ops/internal/platform/observability"
	credentialactivities "github.com/Apurer/retail-ops/internal/platform/temporal/activities/credentials"
	credentialworkflows "github.com/Apurer/retail-ops/internal/platform/temporal/workflows/credentials"
)

func main() {
	ctx := context.Background()
	const serviceName = "retail-ops-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	dispatcher, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.ExternalCallTimeout,
		// Temporal owns retries for the activity.
		Attempts: 1,
	}, logger)
	if err != nil {
		logger.Error("failed to configure mailer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activities := credentialactivities.NewActivities(dispatcher)

	// The worker cannot do anything without Temporal, so TEMPORAL_DISABLED is ignored here.
	cfg.TemporalDisabled = false
	temporalClient, err := api.DialTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, credentialworkflows.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(credentialworkflows.CredentialDeliveryWorkflow, workflow.RegisterOptions{Name: credentialworkflows.DeliveryWorkflowName})
	w.RegisterActivityWithOptions(activities.SendEmail, activity.RegisterOptions{Name: credentialactivities.SendEmailActivityName})

	logger.Info("worker listening", slog.String("taskQueue", credentialworkflows.TaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
