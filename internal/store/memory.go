package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// Memory is an in-process Store used by tests and zero-config development.
// All methods are safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	workspaces  []models.Workspace
	users       []models.User
	apiKeys     []models.APIKey
	events      []models.InteractionEvent
	evaluations []models.EvaluationConfig
	scores      []models.EvalScore
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

var _ Store = (*Memory)(nil)

func (s *Memory) InsertEvent(ctx context.Context, event *models.InteractionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *Memory) ListTaskEvents(ctx context.Context, workspaceID, taskID string) ([]models.InteractionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.InteractionEvent
	for _, e := range s.events {
		if e.WorkspaceID == workspaceID && e.TaskID == taskID {
			events = append(events, e)
		}
	}
	sortEventsByTS(events)
	return events, nil
}

func (s *Memory) ListAgentEvents(ctx context.Context, workspaceID, agentName string) ([]models.InteractionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.InteractionEvent
	for _, e := range s.events {
		if e.WorkspaceID == workspaceID && e.AgentName == agentName {
			events = append(events, e)
		}
	}
	sortEventsByTS(events)
	return events, nil
}

func (s *Memory) ListAgentStats(ctx context.Context, workspaceID string) ([]models.AgentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		tasks        map[string]bool
		successTasks map[string]bool
		errorCount   int
		lastSeen     time.Time
	}
	byAgent := make(map[string]*agg)

	for _, e := range s.events {
		if e.WorkspaceID != workspaceID {
			continue
		}
		a, ok := byAgent[e.AgentName]
		if !ok {
			a = &agg{tasks: make(map[string]bool), successTasks: make(map[string]bool)}
			byAgent[e.AgentName] = a
		}
		a.tasks[e.TaskID] = true
		if e.Kind == models.KindResult {
			a.successTasks[e.TaskID] = true
		}
		if e.Kind == models.KindError {
			a.errorCount++
		}
		if e.TS.After(a.lastSeen) {
			a.lastSeen = e.TS
		}
	}

	names := make([]string, 0, len(byAgent))
	for name := range byAgent {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]models.AgentStats, 0, len(names))
	for _, name := range names {
		a := byAgent[name]
		stats = append(stats, models.AgentStats{
			AgentName:    name,
			TasksCount:   len(a.tasks),
			SuccessCount: len(a.successTasks),
			ErrorCount:   a.errorCount,
			LastSeen:     a.lastSeen,
		})
	}
	return stats, nil
}

func (s *Memory) GetEvaluation(ctx context.Context, workspaceID, agentName string) (*models.EvaluationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.evaluations {
		cfg := s.evaluations[i]
		if cfg.WorkspaceID == workspaceID && cfg.AgentName == agentName {
			return &cfg, nil
		}
	}
	return nil, nil
}

func (s *Memory) UpsertEvaluation(ctx context.Context, workspaceID, agentName string, patch models.EvaluationPatch) (*models.EvaluationConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	for i := range s.evaluations {
		if s.evaluations[i].WorkspaceID != workspaceID || s.evaluations[i].AgentName != agentName {
			continue
		}
		cfg := &s.evaluations[i]
		if patch.RubricText != nil {
			cfg.RubricText = patch.RubricText
		}
		if patch.ExpectedText != nil {
			cfg.ExpectedText = patch.ExpectedText
		}
		if patch.IsEnabled != nil {
			cfg.IsEnabled = *patch.IsEnabled
		}
		cfg.Version++
		cfg.UpdatedAt = now
		updated := *cfg
		return &updated, false, nil
	}

	cfg := models.EvaluationConfig{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		AgentName:    agentName,
		RubricText:   patch.RubricText,
		ExpectedText: patch.ExpectedText,
		IsEnabled:    true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if patch.IsEnabled != nil {
		cfg.IsEnabled = *patch.IsEnabled
	}
	s.evaluations = append(s.evaluations, cfg)
	created := cfg
	return &created, true, nil
}

func (s *Memory) InsertScore(ctx context.Context, score *models.EvalScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now().UTC()
	}
	s.scores = append(s.scores, *score)
	return nil
}

func (s *Memory) ListAgentScores(ctx context.Context, workspaceID, agentName string) ([]models.EvalScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scores []models.EvalScore
	for _, score := range s.scores {
		if score.WorkspaceID == workspaceID && score.AgentName == agentName {
			scores = append(scores, score)
		}
	}
	sortScoresNewestFirst(scores)
	return scores, nil
}

func (s *Memory) ListTaskScores(ctx context.Context, workspaceID, taskID string) ([]models.EvalScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scores []models.EvalScore
	for _, score := range s.scores {
		if score.WorkspaceID == workspaceID && score.TaskID == taskID {
			scores = append(scores, score)
		}
	}
	sortScoresNewestFirst(scores)
	return scores, nil
}

func (s *Memory) LatestTaskScore(ctx context.Context, workspaceID, taskID string) (*models.EvalScore, error) {
	scores, err := s.ListTaskScores(ctx, workspaceID, taskID)
	if err != nil || len(scores) == 0 {
		return nil, err
	}
	return &scores[0], nil
}

func (s *Memory) CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := models.Workspace{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	s.workspaces = append(s.workspaces, ws)
	return &ws, nil
}

func (s *Memory) CreateUser(ctx context.Context, workspaceID, email, hashedPassword string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.User{
		ID:             uuid.NewString(),
		WorkspaceID:    workspaceID,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}
	s.users = append(s.users, user)
	return &user, nil
}

func (s *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].Email == email {
			user := s.users[i]
			return &user, nil
		}
	}
	return nil, nil
}

func (s *Memory) CreateAPIKey(ctx context.Context, workspaceID, name, secretHash, prefix string) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.APIKey{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		SecretHash:  secretHash,
		Prefix:      prefix,
		CreatedAt:   time.Now().UTC(),
	}
	s.apiKeys = append(s.apiKeys, key)
	return &key, nil
}

func (s *Memory) ListAPIKeys(ctx context.Context, workspaceID string) ([]models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []models.APIKey
	for _, key := range s.apiKeys {
		if key.WorkspaceID == workspaceID {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *Memory) RevokeAPIKey(ctx context.Context, workspaceID, keyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.apiKeys {
		key := &s.apiKeys[i]
		if key.ID == keyID && key.WorkspaceID == workspaceID && key.RevokedAt == nil {
			now := time.Now().UTC()
			key.RevokedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *Memory) FindAPIKeyBySecretHash(ctx context.Context, secretHash string) (*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.apiKeys {
		key := s.apiKeys[i]
		if key.SecretHash == secretHash && key.RevokedAt == nil {
			return &key, nil
		}
	}
	return nil, nil
}

func (s *Memory) TouchAPIKey(ctx context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.apiKeys {
		if s.apiKeys[i].ID == keyID {
			now := time.Now().UTC()
			s.apiKeys[i].LastUsedAt = &now
			return nil
		}
	}
	return nil
}

func sortEventsByTS(events []models.InteractionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].TS.Equal(events[j].TS) {
			return events[i].ID < events[j].ID
		}
		return events[i].TS.Before(events[j].TS)
	})
}

func sortScoresNewestFirst(scores []models.EvalScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].CreatedAt.Equal(scores[j].CreatedAt) {
			return scores[i].ID > scores[j].ID
		}
		return scores[i].CreatedAt.After(scores[j].CreatedAt)
	})
}
