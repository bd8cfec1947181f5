//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "retail-ops-api"
	ConsumerName = "ops-dashboard"

	StateAgentExists   = "agent agent-pact exists"
	StateAgentMissing  = "no agent ghost-agent"
	StateProductExists = "product pact-apple with stock 3 in store pact-store"
	StateNoOrders      = "no orders placed"
)

const (
	ExistingAgentID = "agent-pact"
	MissingAgentID  = "ghost-agent"

	StoreID        = "pact-store"
	ProductID      = "pact-apple"
	InitialStock   = 3
	StockDelta     = 5
	MissingOrderID = "order-404"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleAgentPayload is the agent the provider seeds for StateAgentExists.
func ExampleAgentPayload() map[string]any {
	return map[string]any{
		"id":         ExistingAgentID,
		"name":       "Pact Rider",
		"email":      "pact.rider@example.com",
		"mobile":     "+48100200300",
		"available":  true,
		"loginEmail": "pactrider0001@agents.example.com",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
