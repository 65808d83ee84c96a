package helpers

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

// TenantFixture is one fully provisioned workspace for integration tests
type TenantFixture struct {
	Workspace *models.Workspace
	User      *models.User
	Password  string
	APIKey    *models.APIKey
	Secret    string
}

// CreateTenant provisions a workspace with a dashboard user and one
// ingestion API key
func CreateTenant(t *testing.T, st store.Store, name string) *TenantFixture {
	t.Helper()
	ctx := context.Background()

	ws, err := st.CreateWorkspace(ctx, name)
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	password := "integration-pass1"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user, err := st.CreateUser(ctx, ws.ID, name+"@example.test", string(hashed))
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	secret, prefix := auth.GenerateAPIKeySecret()
	key, err := st.CreateAPIKey(ctx, ws.ID, "integration", auth.HashSecret(secret), prefix)
	if err != nil {
		t.Fatalf("failed to create api key: %v", err)
	}

	return &TenantFixture{
		Workspace: ws,
		User:      user,
		Password:  password,
		APIKey:    key,
		Secret:    secret,
	}
}

// InsertTaskLifecycle writes a typical user-input/tool-call/result sequence
// for one task and returns the events in canonical order
func InsertTaskLifecycle(t *testing.T, st store.Store, workspaceID, agentName, taskID string, start time.Time) []models.InteractionEvent {
	t.Helper()
	ctx := context.Background()

	userMsg := "resolve the ticket"
	toolMsg := "search_kb"
	resultMsg := "Ticket resolved with KB article 7."

	events := []models.InteractionEvent{
		{WorkspaceID: workspaceID, AgentName: agentName, TaskID: taskID, Kind: models.KindUserInput, Message: &userMsg, TS: start},
		{WorkspaceID: workspaceID, AgentName: agentName, TaskID: taskID, Kind: models.KindToolCall, Message: &toolMsg, TS: start.Add(time.Second)},
		{WorkspaceID: workspaceID, AgentName: agentName, TaskID: taskID, Kind: models.KindResult, Message: &resultMsg, TS: start.Add(2 * time.Second)},
	}
	for i := range events {
		if err := st.InsertEvent(ctx, &events[i]); err != nil {
			t.Fatalf("failed to insert event: %v", err)
		}
	}
	return events
}
