package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

type SubmitIngestionInput struct {
	Kind        string
	Source      string
	Payload     []byte
	SubmittedBy string
}

type VerifyIngestionInput struct {
	ID              string
	VerifierID      string
	ConfidenceScore float64
	Notes           string
}

type RejectIngestionInput struct {
	ID         string
	ReviewerID string
	Reason     string
}

type VerifyIngestionResult struct {
	Log      ingestion.Log
	EntityID string
	Created  bool
}

// IngestionService admits externally sourced payloads into the canonical
// store after human review.
type IngestionService struct {
	ingestionRepo ingestion.Repository
	tx            TxManager
	resolvers     map[ingestion.Kind]Resolver
	jobs          *JobDispatcher
	ids           id.Generator
	logger        *logging.Logger
	audit         *logging.Logger
	now           func() time.Time
}

func NewIngestionService(
	ingestionRepo ingestion.Repository,
	tx TxManager,
	resolvers []Resolver,
	jobs *JobDispatcher,
	ids id.Generator,
	logger *logging.Logger,
) *IngestionService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	byKind := make(map[ingestion.Kind]Resolver, len(resolvers))
	for _, resolver := range resolvers {
		byKind[resolver.Kind()] = resolver
	}

	return &IngestionService{
		ingestionRepo: ingestionRepo,
		tx:            tx,
		resolvers:     byKind,
		jobs:          jobs,
		ids:           ids,
		logger:        logger,
		audit:         logger.Named("audit"),
		now:           time.Now,
	}
}

func (s *IngestionService) Submit(ctx context.Context, input SubmitIngestionInput) (ingestion.Log, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Submit")
	defer span.End()

	kind, ok := ingestion.ParseKind(input.Kind)
	if !ok {
		return ingestion.Log{}, fmt.Errorf("%w: unknown ingestion type %q", ErrInvalidInput, input.Kind)
	}
	if _, err := ingestion.Decode(kind, input.Payload); err != nil {
		return ingestion.Log{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if _, ok := s.resolvers[kind]; !ok {
		return ingestion.Log{}, fmt.Errorf("%w: no resolver for %s", ErrInvalidInput, kind)
	}

	logID, err := s.ids.NewID()
	if err != nil {
		return ingestion.Log{}, fmt.Errorf("generate ingestion id: %w", err)
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = "api"
	}

	now := s.now().UTC()
	item := ingestion.Log{
		ID:        logID,
		Kind:      kind,
		Source:    source,
		Payload:   append([]byte(nil), input.Payload...),
		Status:    ingestion.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ingestionRepo.Create(ctx, item); err != nil {
		return ingestion.Log{}, fmt.Errorf("create ingestion log: %w", err)
	}

	s.audit.InfoContext(ctx, "ingestion submitted",
		"ingestion_id", item.ID,
		"kind", kind,
		"source", source,
		"submitted_by", input.SubmittedBy,
	)
	return item, nil
}

func (s *IngestionService) Get(ctx context.Context, ingestionID string) (ingestion.Log, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Get")
	defer span.End()

	ingestionID = strings.TrimSpace(ingestionID)
	if ingestionID == "" {
		return ingestion.Log{}, fmt.Errorf("%w: ingestion id is required", ErrInvalidInput)
	}
	item, exists, err := s.ingestionRepo.GetByID(ctx, ingestionID)
	if err != nil {
		return ingestion.Log{}, fmt.Errorf("get ingestion log: %w", err)
	}
	if !exists {
		return ingestion.Log{}, fmt.Errorf("%w: ingestion=%s", ErrNotFound, ingestionID)
	}
	return item, nil
}

// Verify approves a pending payload and resolves it into canonical rows.
// The approval is committed even when resolution fails afterwards; the
// failure is stored on the log and returned to the caller.
func (s *IngestionService) Verify(ctx context.Context, input VerifyIngestionInput) (VerifyIngestionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Verify")
	defer span.End()

	if input.ConfidenceScore < 0 || input.ConfidenceScore > 1 {
		return VerifyIngestionResult{}, fmt.Errorf("%w: confidence score must be within [0, 1]", ErrInvalidInput)
	}
	item, err := s.Get(ctx, input.ID)
	if err != nil {
		return VerifyIngestionResult{}, err
	}
	if err := item.TerminalError(); err != nil {
		return VerifyIngestionResult{}, fmt.Errorf("verify ingestion=%s: %w", item.ID, err)
	}
	payload, err := ingestion.Decode(item.Kind, item.Payload)
	if err != nil {
		return VerifyIngestionResult{}, fmt.Errorf("%w: stored payload: %w", ErrInvalidInput, err)
	}

	verified, err := s.ingestionRepo.MarkVerified(ctx, item.ID, ingestion.VerificationRecord{
		IngestionID:     item.ID,
		VerifierID:      strings.TrimSpace(input.VerifierID),
		ConfidenceScore: input.ConfidenceScore,
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		return VerifyIngestionResult{}, fmt.Errorf("verify ingestion=%s: %w", item.ID, err)
	}
	s.audit.InfoContext(ctx, "ingestion verified",
		"ingestion_id", item.ID,
		"kind", item.Kind,
		"verifier_id", input.VerifierID,
		"confidence", input.ConfidenceScore,
	)

	return s.resolve(ctx, verified, payload)
}

// RetryResolution re-runs resolution for a verified log whose earlier
// resolution failed, e.g. after the missing club was ingested.
func (s *IngestionService) RetryResolution(ctx context.Context, ingestionID string) (VerifyIngestionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.RetryResolution")
	defer span.End()

	item, err := s.Get(ctx, ingestionID)
	if err != nil {
		return VerifyIngestionResult{}, err
	}
	if item.Status != ingestion.StatusVerified || item.ResolutionError == "" {
		return VerifyIngestionResult{}, fmt.Errorf("%w: %w: ingestion=%s status=%s", ErrConflict, ingestion.ErrNothingToRetry, item.ID, item.Status)
	}
	payload, err := ingestion.Decode(item.Kind, item.Payload)
	if err != nil {
		return VerifyIngestionResult{}, fmt.Errorf("%w: stored payload: %w", ErrInvalidInput, err)
	}

	return s.resolve(ctx, item, payload)
}

func (s *IngestionService) Reject(ctx context.Context, input RejectIngestionInput) (ingestion.Log, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Reject")
	defer span.End()

	item, err := s.Get(ctx, input.ID)
	if err != nil {
		return ingestion.Log{}, err
	}
	if err := item.TerminalError(); err != nil {
		return ingestion.Log{}, fmt.Errorf("reject ingestion=%s: %w", item.ID, err)
	}

	reason := strings.TrimSpace(input.Reason)
	rejected, err := s.ingestionRepo.MarkRejected(ctx, item.ID, reason, strings.TrimSpace(input.ReviewerID), s.now().UTC())
	if err != nil {
		return ingestion.Log{}, fmt.Errorf("reject ingestion=%s: %w", item.ID, err)
	}

	s.audit.InfoContext(ctx, "ingestion rejected",
		"ingestion_id", item.ID,
		"kind", item.Kind,
		"reviewer_id", input.ReviewerID,
		"reason", reason,
	)
	return rejected, nil
}

func (s *IngestionService) resolve(ctx context.Context, item ingestion.Log, payload ingestion.Payload) (VerifyIngestionResult, error) {
	resolver, ok := s.resolvers[item.Kind]
	if !ok {
		return VerifyIngestionResult{Log: item}, fmt.Errorf("%w: no resolver for %s", ErrInvalidInput, item.Kind)
	}

	var resolution Resolution
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		resolution, err = resolver.Resolve(ctx, payload)
		return err
	})

	now := s.now().UTC()
	if err != nil {
		if setErr := s.ingestionRepo.SetResolution(ctx, item.ID, "", err.Error(), now); setErr != nil {
			s.logger.ErrorContext(ctx, "store resolution failure failed", "ingestion_id", item.ID, "error", setErr)
		}
		item.ResolutionError = err.Error()
		s.audit.WarnContext(ctx, "ingestion resolution failed",
			"ingestion_id", item.ID,
			"kind", item.Kind,
			"missing_reference", errors.Is(err, ingestion.ErrMissingRequiredReference),
			"error", err,
		)
		return VerifyIngestionResult{Log: item}, fmt.Errorf("resolve ingestion=%s: %w", item.ID, err)
	}

	if err := s.ingestionRepo.SetResolution(ctx, item.ID, resolution.EntityID, "", now); err != nil {
		return VerifyIngestionResult{}, fmt.Errorf("store resolution: %w", err)
	}
	item.ResolvedEntityID = resolution.EntityID
	item.ResolutionError = ""
	item.UpdatedAt = now

	// Jobs only leave after the canonical transaction committed.
	for _, job := range resolution.FollowUp {
		s.jobs.Dispatch(ctx, job.Kind, job.TargetID, job.Payload)
	}

	s.audit.InfoContext(ctx, "ingestion resolved",
		"ingestion_id", item.ID,
		"entity", resolution.Entity,
		"entity_id", resolution.EntityID,
		"created", resolution.Created,
	)
	return VerifyIngestionResult{Log: item, EntityID: resolution.EntityID, Created: resolution.Created}, nil
}
