package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/interpret"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/prompt"
	"github.com/sqlscribe/sqlscribe/internal/repository/redis"
)

// dictionaryCache is the slice of the Redis cache this service uses.
// *redis.DictionaryCache satisfies it.
type dictionaryCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error)
	Set(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error
	Invalidate(ctx context.Context, sessionID uuid.UUID) error
}

// DictionaryService builds and maintains the per-session field dictionary.
type DictionaryService struct {
	llmService *llm.Service
	dictRepo   domain.DictionaryRepository
	cache      dictionaryCache
}

// NewDictionaryService creates a new dictionary service
func NewDictionaryService(llmService *llm.Service, dictRepo domain.DictionaryRepository, cache *redis.DictionaryCache) *DictionaryService {
	svc := &DictionaryService{
		llmService: llmService,
		dictRepo:   dictRepo,
	}
	if cache != nil {
		svc.cache = cache
	}
	return svc
}

// refreshCache mirrors a saved dictionary into the cache. Get serves cache
// hits without consulting the repository, and the repository only ever hands
// out complete dictionaries, so an incomplete one must evict rather than
// populate or it would bypass that gate until its TTL expires.
func (s *DictionaryService) refreshCache(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) {
	if s.cache == nil {
		return
	}
	if !dict.IsComplete {
		if err := s.cache.Invalidate(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to invalidate dictionary cache")
		}
		return
	}
	if err := s.cache.Set(ctx, sessionID, dict); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to cache dictionary")
	}
}

// Generate extracts a field dictionary from the user's SQL segments and CSV
// summaries in a single model call. Relations referencing unknown tables or
// fields are pruned and reported as warnings; the model reply is never
// silently repaired beyond that.
func (s *DictionaryService) Generate(ctx context.Context, sessionID uuid.UUID, segments []domain.SQLSegment, csvFiles []domain.CSVSummary, pc domain.ProviderConfig) (*domain.FieldDictionary, error) {
	if len(segments) == 0 && len(csvFiles) == 0 {
		return nil, fmt.Errorf("at least one SQL segment or CSV summary is required")
	}

	start := time.Now()
	p := prompt.BuildDictionaryPrompt(segments, csvFiles)

	resp, err := s.llmService.GenerateFromPrompt(ctx, pc.Provider, p, llm.Options{
		APIKey: pc.APIKey,
		Model:  pc.Model,
	})
	if err != nil {
		return nil, err
	}

	dict, err := interpret.DecodeDictionary(resp.Content)
	if err != nil {
		return nil, err
	}

	dict.Normalize()
	dict.Warnings = append(dict.Warnings, dict.PruneInvalidRelations()...)

	if err := s.dictRepo.Save(ctx, sessionID, dict); err != nil {
		return nil, fmt.Errorf("failed to save dictionary: %w", err)
	}
	s.refreshCache(ctx, sessionID, dict)

	log.Info().
		Str("session_id", sessionID.String()).
		Str("provider", pc.Provider).
		Int("tables", len(dict.Tables)).
		Int("relations", len(dict.Relations)).
		Bool("complete", dict.IsComplete).
		Dur("duration", time.Since(start)).
		Msg("dictionary generated")

	return dict, nil
}

// Get returns the session's complete dictionary, consulting the cache first.
func (s *DictionaryService) Get(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, sessionID); err == nil && cached != nil {
			return cached, nil
		}
	}

	dict, err := s.dictRepo.GetComplete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &DictionaryMissingError{SessionID: sessionID}
		}
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	s.refreshCache(ctx, sessionID, dict)
	return dict, nil
}

// Update replaces the session's dictionary with a user-edited version.
func (s *DictionaryService) Update(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error {
	dict.Normalize()
	if err := dict.Validate(); err != nil {
		return &InvalidDictionaryError{Err: err}
	}

	if err := s.dictRepo.Save(ctx, sessionID, dict); err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	s.refreshCache(ctx, sessionID, dict)
	return nil
}

// Delete removes the session's dictionary.
func (s *DictionaryService) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.dictRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete dictionary: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to invalidate dictionary cache")
		}
	}
	return nil
}
