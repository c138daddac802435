package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/interpret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const dictionaryReply = "```json\n" + `{
  "tables": [
    {"tableName": "users", "fields": [
      {"fieldName": "id", "dataType": "bigint", "primaryKey": true},
      {"fieldName": "name", "dataType": "text"}
    ]},
    {"tableName": "orders", "fields": [
      {"fieldName": "id", "dataType": "bigint", "primaryKey": true},
      {"fieldName": "user_id", "dataType": "bigint"}
    ]}
  ],
  "relations": [
    {"fromTable": "orders", "fromField": "user_id", "toTable": "users", "toField": "id", "relationType": "1:N"},
    {"fromTable": "orders", "fromField": "product_id", "toTable": "products", "toField": "id", "relationType": "1:N"}
  ],
  "isComplete": true
}` + "\n```"

func TestDictionaryService_Generate(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	pc := domain.ProviderConfig{Provider: "mockai", APIKey: "sk-test"}
	segments := []domain.SQLSegment{{Code: "CREATE TABLE users (id bigint, name text)"}}

	t.Run("prunes relations to unknown tables and saves", func(t *testing.T) {
		provider := NewMockProvider("mockai")
		dictRepo := new(MockDictionaryRepository)
		svc := &DictionaryService{llmService: newTestLLMService(provider), dictRepo: dictRepo}

		provider.On("Generate", ctx, mock.Anything, mock.Anything).Return(reply(dictionaryReply), nil)
		dictRepo.On("Save", ctx, sessionID, mock.Anything).Return(nil)

		dict, err := svc.Generate(ctx, sessionID, segments, nil, pc)
		require.NoError(t, err)

		require.Len(t, dict.Tables, 2)
		require.Len(t, dict.Relations, 1, "relation to products must be dropped")
		assert.Equal(t, "users", dict.Relations[0].ToTable)
		require.Len(t, dict.Warnings, 1)
		assert.Contains(t, dict.Warnings[0], "products")
		assert.True(t, dict.IsComplete)

		dictRepo.AssertExpectations(t)
	})

	t.Run("complete result is cached", func(t *testing.T) {
		provider := NewMockProvider("mockai")
		dictRepo := new(MockDictionaryRepository)
		cache := newFakeDictionaryCache()
		svc := &DictionaryService{llmService: newTestLLMService(provider), dictRepo: dictRepo, cache: cache}

		provider.On("Generate", ctx, mock.Anything, mock.Anything).Return(reply(dictionaryReply), nil)
		dictRepo.On("Save", ctx, sessionID, mock.Anything).Return(nil)

		_, err := svc.Generate(ctx, sessionID, segments, nil, pc)
		require.NoError(t, err)

		require.NotNil(t, cache.entries[sessionID])

		// Reads are now served from the cache without touching the repository.
		got, err := svc.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, got.IsComplete)
		dictRepo.AssertNotCalled(t, "GetComplete", mock.Anything, mock.Anything)
	})

	t.Run("incomplete result evicts the cache instead of populating it", func(t *testing.T) {
		provider := NewMockProvider("mockai")
		dictRepo := new(MockDictionaryRepository)
		cache := newFakeDictionaryCache()
		cache.entries[sessionID] = testDictionary() // stale complete entry
		svc := &DictionaryService{llmService: newTestLLMService(provider), dictRepo: dictRepo, cache: cache}

		incompleteReply := strings.Replace(dictionaryReply, `"isComplete": true`, `"isComplete": false`, 1)
		provider.On("Generate", ctx, mock.Anything, mock.Anything).Return(reply(incompleteReply), nil)
		dictRepo.On("Save", ctx, sessionID, mock.Anything).Return(nil)

		dict, err := svc.Generate(ctx, sessionID, segments, nil, pc)
		require.NoError(t, err)
		require.False(t, dict.IsComplete)

		assert.Nil(t, cache.entries[sessionID], "incomplete dictionary must not be served from the cache")

		// The query pipeline falls through to the repository, which only
		// hands out complete dictionaries.
		dictRepo.On("GetComplete", ctx, sessionID).Return(nil, domain.ErrNotFound)
		_, err = svc.Get(ctx, sessionID)
		assert.ErrorIs(t, err, ErrDictionaryMissing)
	})

	t.Run("rejects empty input without a model call", func(t *testing.T) {
		provider := NewMockProvider("mockai")
		svc := &DictionaryService{llmService: newTestLLMService(provider), dictRepo: new(MockDictionaryRepository)}

		_, err := svc.Generate(ctx, sessionID, nil, nil, pc)
		require.Error(t, err)
		provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed reply is not saved", func(t *testing.T) {
		provider := NewMockProvider("mockai")
		dictRepo := new(MockDictionaryRepository)
		svc := &DictionaryService{llmService: newTestLLMService(provider), dictRepo: dictRepo}

		provider.On("Generate", ctx, mock.Anything, mock.Anything).
			Return(reply(`{"relations": []}`), nil)

		_, err := svc.Generate(ctx, sessionID, segments, nil, pc)

		var malformedErr *interpret.MalformedResponseError
		require.ErrorAs(t, err, &malformedErr)
		dictRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDictionaryService_Get(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()

	t.Run("missing dictionary maps to typed error", func(t *testing.T) {
		dictRepo := new(MockDictionaryRepository)
		svc := &DictionaryService{dictRepo: dictRepo}

		dictRepo.On("GetComplete", ctx, sessionID).Return(nil, domain.ErrNotFound)

		_, err := svc.Get(ctx, sessionID)
		assert.ErrorIs(t, err, ErrDictionaryMissing)
	})

	t.Run("repo hit", func(t *testing.T) {
		dictRepo := new(MockDictionaryRepository)
		svc := &DictionaryService{dictRepo: dictRepo}

		want := testDictionary()
		dictRepo.On("GetComplete", ctx, sessionID).Return(want, nil)

		got, err := svc.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestDictionaryService_Update(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()

	t.Run("valid edit saved", func(t *testing.T) {
		dictRepo := new(MockDictionaryRepository)
		svc := &DictionaryService{dictRepo: dictRepo}

		dict := testDictionary()
		require.NoError(t, dict.AddField("users", domain.Field{Name: "email", DataType: "text"}))
		dictRepo.On("Save", ctx, sessionID, dict).Return(nil)

		require.NoError(t, svc.Update(ctx, sessionID, dict))
		assert.True(t, dict.Table("users").Fields[3].UserAdded, "user-added fields are flagged")
		dictRepo.AssertExpectations(t)
	})

	t.Run("structurally invalid edit rejected with typed error", func(t *testing.T) {
		dictRepo := new(MockDictionaryRepository)
		svc := &DictionaryService{dictRepo: dictRepo}

		dict := testDictionary()
		dict.Tables = append(dict.Tables, domain.Table{Name: "users"})

		err := svc.Update(ctx, sessionID, dict)

		var invalidErr *InvalidDictionaryError
		require.ErrorAs(t, err, &invalidErr)
		dictRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("marking the dictionary incomplete evicts the cache", func(t *testing.T) {
		dictRepo := new(MockDictionaryRepository)
		cache := newFakeDictionaryCache()
		cache.entries[sessionID] = testDictionary()
		svc := &DictionaryService{dictRepo: dictRepo, cache: cache}

		dict := testDictionary()
		dict.IsComplete = false
		dictRepo.On("Save", ctx, sessionID, dict).Return(nil)

		require.NoError(t, svc.Update(ctx, sessionID, dict))
		assert.Nil(t, cache.entries[sessionID])
	})
}
