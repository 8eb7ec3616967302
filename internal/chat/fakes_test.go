package chat_test

import (
	"context"
	"sync"
	"testing"

	"chat-gateway/internal/database"
	"chat-gateway/internal/result"
	"chat-gateway/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeProxy struct {
	mu sync.Mutex

	health    *api.ModelHealth
	healthErr error
	res       *api.ModelResponse
	chatErr   error

	healthCalls int
	chatCalls   int
	requests    []api.ModelRequest
}

func healthyProxy() *fakeProxy {
	return &fakeProxy{
		health: &api.ModelHealth{Model: "test", Status: api.HealthyStatus},
		res: &api.ModelResponse{
			Choices: []api.Choice{{Message: api.Message{Role: "assistant", Content: "Paris is the capital of France."}, FinishReason: "stop"}},
			Usage:   api.Usage{PromptTokens: 15, CompletionTokens: 10, TotalTokens: 25},
		},
	}
}

func (p *fakeProxy) Chat(ctx context.Context, req api.ModelRequest) (*api.ModelResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatCalls++
	p.requests = append(p.requests, req)
	return p.res, p.chatErr
}

func (p *fakeProxy) HealthCheck(ctx context.Context) (*api.ModelHealth, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthCalls++
	return p.health, p.healthErr
}

func (p *fakeProxy) lastRequest() api.ModelRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type fakeSessions struct {
	sessions  map[uuid.UUID]*database.Session
	getErr    *result.ErrorDetail
	saveRes   result.Result[bool]
	getCalls  int
	saveCalls int
}

func (f *fakeSessions) Get(ctx context.Context, id uuid.UUID) result.Result[*database.Session] {
	f.getCalls++
	if f.getErr != nil {
		return result.Err[*database.Session](*f.getErr)
	}
	return result.Ok(f.sessions[id])
}

func (f *fakeSessions) Save(ctx context.Context, session *database.Session) result.Result[bool] {
	f.saveCalls++
	return f.saveRes
}

type fakeConversations struct {
	conversations map[uuid.UUID]*database.Conversation
	getErr        *result.ErrorDetail
	saveRes       result.Result[bool]
	saved         *database.Conversation
	getCalls      int
	saveCalls     int
}

func (f *fakeConversations) Get(ctx context.Context, id uuid.UUID) result.Result[*database.Conversation] {
	f.getCalls++
	if f.getErr != nil {
		return result.Err[*database.Conversation](*f.getErr)
	}
	return result.Ok(f.conversations[id])
}

func (f *fakeConversations) Save(ctx context.Context, conversation *database.Conversation) result.Result[bool] {
	f.saveCalls++
	f.saved = conversation
	return f.saveRes
}

type noopTransactor struct{}

func (noopTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.ConfigureSqlite(db))
	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}
