package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chat-gateway/internal/api"
	"chat-gateway/internal/chat"
	"chat-gateway/internal/database"
	"chat-gateway/internal/proxy"
	"chat-gateway/internal/repository"
	pkgapi "chat-gateway/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	uri := setupPostgresContainer(t, context.Background())
	db, err := database.NewDatabase(uri)
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

// fakeAssistant answers every question with a numbered reply and reports the
// messages it was sent.
type fakeAssistant struct {
	mu       sync.Mutex
	calls    int
	received [][]pkgapi.ChatMessage
}

func (a *fakeAssistant) start(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			json.NewEncoder(w).Encode(pkgapi.ModelHealth{Model: "fake", Status: pkgapi.HealthyStatus}) //nolint:errcheck
		case "/chat":
			var req pkgapi.ModelRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			a.mu.Lock()
			a.calls++
			call := a.calls
			a.received = append(a.received, req.Messages)
			a.mu.Unlock()

			json.NewEncoder(w).Encode(pkgapi.ModelResponse{ //nolint:errcheck
				Choices:  []pkgapi.Choice{{Message: pkgapi.Message{Role: "assistant", Content: fmt.Sprintf("reply %d", call)}, FinishReason: "stop"}},
				Usage:    pkgapi.Usage{PromptTokens: 5 * len(req.Messages), CompletionTokens: 7, TotalTokens: 5*len(req.Messages) + 7},
				Metadata: map[string]any{"sources": []string{"doc-" + fmt.Sprint(call)}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func (a *fakeAssistant) lastMessages() []pkgapi.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.received[len(a.received)-1]
}

func createGateway(t *testing.T, db *gorm.DB, assistantURL string) chi.Router {
	modelProxy := proxy.NewAssistantClient(assistantURL, 5*time.Second)
	health := chat.NewHealthService(modelProxy)
	services := repository.NewGormServices(db)
	transactor := database.NewTransactor(db)

	service := chat.NewService(health, modelProxy, services.Sessions, services.Conversations, transactor, chat.Options{
		ModelConfiguration:     proxy.DefaultModelConfiguration(),
		IncludeHistory:         true,
		MaxLockedConversations: 64,
	})

	r := chi.NewRouter()
	api.NewChatService(service, health).AddRoutes(r)
	api.NewEntityService(services, transactor).AddRoutes(r)
	return r
}

type envelope[T any] struct {
	Status   int      `json:"status"`
	Instance string   `json:"instance"`
	Errors   []string `json:"errors"`
	Result   T        `json:"result"`
}

func httpRequest[T any](api http.Handler, method, endpoint string, payload any) (T, error) {
	var out envelope[T]

	var body io.Reader
	if payload != nil {
		requestBody, err := json.Marshal(payload)
		if err != nil {
			return out.Result, err
		}
		body = bytes.NewReader(requestBody)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		return out.Result, fmt.Errorf("expected status code 200, got %d: %v", rr.Code, rr.Body.String())
	}

	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		return out.Result, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return out.Result, nil
}
