package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sqlscribe/sqlscribe/internal/domain"
	"github.com/sqlscribe/sqlscribe/internal/interpret"
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/prompt"
)

// maxTitleRunes caps the session title derived from the first query goal.
const maxTitleRunes = 30

// QueryService runs the generation, repair and suggestion pipelines against
// the session's field dictionary.
type QueryService struct {
	llmService  *llm.Service
	dictService *DictionaryService
	historyRepo domain.HistoryRepository
	sessionRepo domain.SessionRepository
}

// NewQueryService creates a new query service
func NewQueryService(llmService *llm.Service, dictService *DictionaryService, historyRepo domain.HistoryRepository, sessionRepo domain.SessionRepository) *QueryService {
	return &QueryService{
		llmService:  llmService,
		dictService: dictService,
		historyRepo: historyRepo,
		sessionRepo: sessionRepo,
	}
}

// Generate turns a natural-language goal into SQL grounded in the session's
// dictionary. A nil SQL in the result is a successful "cannot be satisfied"
// outcome and is not persisted to history.
func (s *QueryService) Generate(ctx context.Context, sessionID uuid.UUID, goal string, pc domain.ProviderConfig) (*domain.GenerationResult, error) {
	dict, err := s.dictService.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.llmService.GenerateFromPrompt(ctx, pc.Provider, prompt.BuildGenerationPrompt(goal, dict), llm.Options{
		APIKey: pc.APIKey,
		Model:  pc.Model,
	})
	if err != nil {
		return nil, err
	}

	result, err := interpret.DecodeQueryResult(resp.Content)
	if err != nil {
		return nil, err
	}
	s.annotate(result, dict)

	log.Info().
		Str("session_id", sessionID.String()).
		Str("provider", pc.Provider).
		Bool("infeasible", result.Infeasible()).
		Bool("is_valid", result.IsValid).
		Int("warnings", len(result.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("sql generated")

	if result.SQL != nil {
		s.recordHistory(ctx, sessionID, goal, *result.SQL, result.IsValid, pc, domain.HistoryGeneration)
		s.touchSession(ctx, sessionID, goal)
	}

	return result, nil
}

// GenerateStream is the streaming variant of Generate. The raw model stream
// is passed through unparsed; callers assemble the chunks and run the full
// reply through the same interpreter when the stream completes.
func (s *QueryService) GenerateStream(ctx context.Context, sessionID uuid.UUID, goal string, pc domain.ProviderConfig) (<-chan llm.StreamChunk, error) {
	dict, err := s.dictService.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.llmService.GenerateFromPromptStream(ctx, pc.Provider, prompt.BuildGenerationPrompt(goal, dict), llm.Options{
		APIKey: pc.APIKey,
		Model:  pc.Model,
	})
}

// Repair asks the model to fix a query that failed at runtime. WasFixed is
// true only when the model produced SQL that differs from the failing query.
func (s *QueryService) Repair(ctx context.Context, sessionID uuid.UUID, goal, failingSQL, errorText string, pc domain.ProviderConfig) (*domain.RepairResult, error) {
	dict, err := s.dictService.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.llmService.GenerateFromPrompt(ctx, pc.Provider, prompt.BuildRepairPrompt(goal, failingSQL, errorText, dict), llm.Options{
		APIKey: pc.APIKey,
		Model:  pc.Model,
	})
	if err != nil {
		return nil, err
	}

	inner, err := interpret.DecodeQueryResult(resp.Content)
	if err != nil {
		return nil, err
	}
	s.annotate(inner, dict)

	result := &domain.RepairResult{
		GenerationResult: *inner,
		WasFixed:         inner.SQL != nil && *inner.SQL != failingSQL,
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("provider", pc.Provider).
		Bool("was_fixed", result.WasFixed).
		Dur("duration", time.Since(start)).
		Msg("sql repair attempted")

	if result.WasFixed {
		s.recordHistory(ctx, sessionID, goal, *result.SQL, result.IsValid, pc, domain.HistoryRepair)
	}

	return result, nil
}

// Suggest proposes analysis queries answerable from the dictionary alone.
// Suggestions are ephemeral and never persisted.
func (s *QueryService) Suggest(ctx context.Context, sessionID uuid.UUID, pc domain.ProviderConfig) (*domain.SuggestionSet, error) {
	dict, err := s.dictService.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := s.llmService.GenerateFromPrompt(ctx, pc.Provider, prompt.BuildSuggestionPrompt(dict), llm.Options{
		APIKey: pc.APIKey,
		Model:  pc.Model,
	})
	if err != nil {
		return nil, err
	}

	return interpret.DecodeSuggestions(resp.Content)
}

// History returns the session's persisted queries, most recent first.
func (s *QueryService) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	entries, err := s.historyRepo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// annotate appends grounding warnings to a decoded result. Identifiers not
// present in the dictionary are reported verbatim; the SQL itself is never
// rewritten.
func (s *QueryService) annotate(result *domain.GenerationResult, dict *domain.FieldDictionary) {
	if result.SQL != nil {
		for _, ident := range dict.UnknownIdentifiers(*result.SQL) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%q does not appear in the field dictionary", ident))
		}
		if !result.IsValid {
			result.Warnings = append(result.Warnings, "the model reported low confidence in this query")
		}
	}
}

// recordHistory persists a successful outcome. History is best effort; a
// storage failure is logged and the result still reaches the caller.
func (s *QueryService) recordHistory(ctx context.Context, sessionID uuid.UUID, goal, sql string, isValid bool, pc domain.ProviderConfig, kind domain.HistoryKind) {
	provider := pc.Provider
	if provider == "" {
		provider = s.llmService.DefaultProvider()
	}
	entry := &domain.HistoryEntry{
		ID:        uuid.New(),
		SessionID: sessionID,
		Goal:      goal,
		SQL:       sql,
		IsValid:   isValid,
		Provider:  provider,
		Model:     pc.Model,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to save history entry")
	}
}

// touchSession bumps the session timestamp and titles it from the first goal.
func (s *QueryService) touchSession(ctx context.Context, sessionID uuid.UUID, goal string) {
	now := time.Now()

	session, err := s.sessionRepo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		session = &domain.Session{
			ID:        sessionID,
			Title:     truncateTitle(goal),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to create session")
		}
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to load session")
		return
	}

	if session.Title == "" {
		session.Title = truncateTitle(goal)
	}
	session.UpdatedAt = now
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to update session")
	}
}

func truncateTitle(goal string) string {
	runes := []rune(goal)
	if len(runes) <= maxTitleRunes {
		return goal
	}
	return string(runes[:maxTitleRunes]) + "..."
}
