package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockDictionaryRepository mocks the DictionaryRepository interface
type MockDictionaryRepository struct {
	mock.Mock
}

func (m *MockDictionaryRepository) Save(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error {
	args := m.Called(ctx, sessionID, dict)
	return args.Error(0)
}

func (m *MockDictionaryRepository) GetComplete(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FieldDictionary), args.Error(1)
}

func (m *MockDictionaryRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockHistoryRepository mocks the HistoryRepository interface
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, sessionID, limit)
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) ListRecent(ctx context.Context, limit int) ([]domain.Session, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
	name string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) AvailableModels() []string { return []string{"test-model"} }

func (m *MockProvider) DefaultModel() string { return "test-model" }

func (m *MockProvider) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func (m *MockProvider) GenerateStream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamChunk, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan llm.StreamChunk), args.Error(1)
}

// fakeDictionaryCache is an in-memory stand-in for the Redis dictionary cache.
type fakeDictionaryCache struct {
	entries map[uuid.UUID]*domain.FieldDictionary
}

func newFakeDictionaryCache() *fakeDictionaryCache {
	return &fakeDictionaryCache{entries: map[uuid.UUID]*domain.FieldDictionary{}}
}

func (c *fakeDictionaryCache) Get(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error) {
	return c.entries[sessionID], nil
}

func (c *fakeDictionaryCache) Set(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error {
	c.entries[sessionID] = dict
	return nil
}

func (c *fakeDictionaryCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	delete(c.entries, sessionID)
	return nil
}

// newTestLLMService wires a mock provider into a real dispatcher.
func newTestLLMService(provider *MockProvider) *llm.Service {
	svc := llm.NewService(provider.name)
	svc.Register(provider)
	return svc
}

// reply wraps model text in the llm response envelope.
func reply(content string) *llm.Response {
	return &llm.Response{Content: content}
}
