package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-gateway/internal/database"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/result"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeStore[T any] struct {
	repository.Store[T]

	id       func(*T) uuid.UUID
	existing map[uuid.UUID]bool
	rows     int64
	err      error

	saveCalls     int
	batchCalls    int
	existsCalls   int
	savedEntities []*T
}

func newFakeStore[T any](id func(*T) uuid.UUID) *fakeStore[T] {
	return &fakeStore[T]{id: id, existing: map[uuid.UUID]bool{}, rows: 1}
}

func (f *fakeStore[T]) Exists(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.existsCalls++
	if f.err != nil {
		return nil, f.err
	}
	found := map[uuid.UUID]bool{}
	for _, id := range ids {
		if f.existing[id] {
			found[id] = true
		}
	}
	return found, nil
}

func (f *fakeStore[T]) Save(ctx context.Context, entity *T) (int64, error) {
	f.saveCalls++
	f.savedEntities = append(f.savedEntities, entity)
	return f.rows, f.err
}

func (f *fakeStore[T]) SaveMultiple(ctx context.Context, entities []*T) (int64, error) {
	f.batchCalls++
	f.savedEntities = append(f.savedEntities, entities...)
	if f.rows == 0 {
		return 0, f.err
	}
	return int64(len(entities)), f.err
}

func (f *fakeStore[T]) calls() int {
	return f.saveCalls + f.batchCalls + f.existsCalls
}

type fakeStores struct {
	sessions      *fakeStore[database.Session]
	conversations *fakeStore[database.Conversation]
	questions     *fakeStore[database.Question]
	answers       *fakeStore[database.Answer]
	services      *repository.Services
}

func newFakeStores() *fakeStores {
	f := &fakeStores{
		sessions:      newFakeStore(func(s *database.Session) uuid.UUID { return s.Id }),
		conversations: newFakeStore(func(c *database.Conversation) uuid.UUID { return c.Id }),
		questions:     newFakeStore(func(q *database.Question) uuid.UUID { return q.Id }),
		answers:       newFakeStore(func(a *database.Answer) uuid.UUID { return a.Id }),
	}
	f.services = repository.NewServices(f.sessions, f.conversations, f.questions, f.answers)
	return f
}

func newTurn(conversationId uuid.UUID, index int) database.Question {
	questionId := uuid.New()
	return database.Question{
		Id:             questionId,
		ConversationId: conversationId,
		Index:          index,
		Content:        "question",
		Answer:         &database.Answer{Id: uuid.New(), QuestionId: questionId, Content: "answer"},
	}
}

func TestSaveMultipleEmptyIsTrivialSuccess(t *testing.T) {
	f := newFakeStores()

	res := f.services.Answers.SaveMultiple(context.Background(), nil)
	assert.False(t, res.HasErrors())
	assert.True(t, res.Value())
	assert.Equal(t, 0, f.answers.calls())

	res2 := f.services.Conversations.SaveMultiple(context.Background(), []*database.Conversation{})
	assert.False(t, res2.HasErrors())
	assert.True(t, res2.Value())
	assert.Equal(t, 0, f.conversations.calls())
}

func TestSaveExistingSkipsInsertButCascades(t *testing.T) {
	f := newFakeStores()
	conversationId := uuid.New()
	f.conversations.existing[conversationId] = true

	conversation := &database.Conversation{
		Id:        conversationId,
		SessionId: uuid.New(),
		Questions: []database.Question{newTurn(conversationId, 1)},
	}

	res := f.services.Conversations.Save(context.Background(), conversation)
	require.False(t, res.HasErrors(), res.Messages())
	assert.True(t, res.Value())

	assert.Equal(t, 0, f.conversations.saveCalls)
	assert.Equal(t, 1, f.questions.batchCalls)
	assert.Equal(t, 1, f.answers.batchCalls)
}

func TestSaveZeroRowsFailsWithoutCascade(t *testing.T) {
	f := newFakeStores()
	f.sessions.rows = 0

	sessionId := uuid.New()
	conversationId := uuid.New()
	session := &database.Session{
		Id: sessionId,
		Conversations: []database.Conversation{{
			Id:        conversationId,
			SessionId: sessionId,
			Questions: []database.Question{newTurn(conversationId, 1)},
		}},
	}

	res := f.services.Sessions.Save(context.Background(), session)
	assert.True(t, res.HasErrors())
	assert.False(t, res.Value())
	assert.Equal(t, result.Persistence, res.Errors()[0].Category)

	assert.Equal(t, 0, f.conversations.calls())
	assert.Equal(t, 0, f.questions.calls())
	assert.Equal(t, 0, f.answers.calls())
}

func TestChildFailureSurfacesUnderParent(t *testing.T) {
	f := newFakeStores()
	f.answers.err = errors.New("connection reset")

	conversationId := uuid.New()
	question := newTurn(conversationId, 1)

	res := f.services.Questions.Save(context.Background(), &question)
	require.True(t, res.HasErrors())
	assert.False(t, res.Value())
	assert.Equal(t, "failed to save Answer for Question "+question.Id.String(), res.Messages()[0])
	assert.ErrorContains(t, res.Errors()[1], "connection reset")
}

func TestStoreErrorBecomesPersistenceError(t *testing.T) {
	f := newFakeStores()
	f.sessions.err = errors.New("database is down")

	res := f.services.Sessions.Save(context.Background(), &database.Session{Id: uuid.New()})
	require.True(t, res.HasErrors())
	assert.Equal(t, result.Persistence, res.Errors()[0].Category)
	assert.ErrorContains(t, res.Errors()[0], "database is down")
}

func TestSaveMultipleBatchesChildrenAcrossParents(t *testing.T) {
	f := newFakeStores()
	conversationId := uuid.New()
	existing := newTurn(conversationId, 1)
	f.questions.existing[existing.Id] = true

	questions := []*database.Question{&existing}
	for i := 2; i <= 3; i++ {
		q := newTurn(conversationId, i)
		questions = append(questions, &q)
	}

	res := f.services.Questions.SaveMultiple(context.Background(), questions)
	require.False(t, res.HasErrors(), res.Messages())

	assert.Equal(t, 1, f.questions.batchCalls)
	assert.Len(t, f.questions.savedEntities, 2)
	assert.Equal(t, 1, f.answers.batchCalls)
	assert.Len(t, f.answers.savedEntities, 3)
}

func TestChildForeignKeysFilledFromParent(t *testing.T) {
	f := newFakeStores()
	sessionId := uuid.New()
	session := &database.Session{
		Id:            sessionId,
		Conversations: []database.Conversation{{Id: uuid.New()}},
	}

	res := f.services.Sessions.Save(context.Background(), session)
	require.False(t, res.HasErrors(), res.Messages())
	require.Len(t, f.conversations.savedEntities, 1)
	assert.Equal(t, sessionId, f.conversations.savedEntities[0].SessionId)
}

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.ConfigureSqlite(db))
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func TestSessionSaveCascadesToAnswers(t *testing.T) {
	db := createDB(t)
	services := repository.NewGormServices(db)
	ctx := context.Background()

	sessionId, conversationId := uuid.New(), uuid.New()
	session := &database.Session{
		Id:           sessionId,
		CreationTime: time.Now(),
		Conversations: []database.Conversation{{
			Id:           conversationId,
			SessionId:    sessionId,
			CreationTime: time.Now(),
			Questions:    []database.Question{newTurn(conversationId, 1), newTurn(conversationId, 2)},
		}},
	}

	res := services.Sessions.Save(ctx, session)
	require.False(t, res.HasErrors(), res.Messages())

	loaded := services.Conversations.Get(ctx, conversationId)
	require.False(t, loaded.HasErrors())
	require.NotNil(t, loaded.Value())
	require.Len(t, loaded.Value().Questions, 2)
	assert.Equal(t, 1, loaded.Value().Questions[0].Index)
	require.NotNil(t, loaded.Value().Questions[1].Answer)

	sessionRes := services.Sessions.Get(ctx, sessionId)
	require.False(t, sessionRes.HasErrors())
	assert.Len(t, sessionRes.Value().Conversations, 1)

	// Saving again appends only the new turn.
	conversation := loaded.Value()
	conversation.Questions = append(conversation.Questions, newTurn(conversationId, 3))
	res = services.Conversations.Save(ctx, conversation)
	require.False(t, res.HasErrors(), res.Messages())

	var count int64
	require.NoError(t, db.Model(&database.Question{}).Where("conversation_id = ?", conversationId).Count(&count).Error)
	assert.Equal(t, int64(3), count)
	require.NoError(t, db.Model(&database.Answer{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestGetMissingIsNotAnError(t *testing.T) {
	services := repository.NewGormServices(createDB(t))

	res := services.Sessions.Get(context.Background(), uuid.New())
	assert.False(t, res.HasErrors())
	assert.Nil(t, res.Value())
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	services := repository.NewGormServices(createDB(t))

	res := services.Answers.Delete(context.Background(), uuid.New())
	require.True(t, res.HasErrors())
	assert.Equal(t, result.NotFound, res.Errors()[0].Category)
}
