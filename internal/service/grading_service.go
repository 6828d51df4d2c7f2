package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/nbgrade/nbgrade-api/internal/dto"
	"github.com/nbgrade/nbgrade-api/internal/models"
	"github.com/nbgrade/nbgrade-api/internal/observability"
	"github.com/nbgrade/nbgrade-api/internal/repository"
	"github.com/nbgrade/nbgrade-api/pkg/ai"
)

// ErrHistoryUnavailable indicates no grading-run store is configured.
var ErrHistoryUnavailable = errors.New("grading history not configured")

// GradingService runs the full grading pipeline over already-extracted
// notebook content and a video transcript.
type GradingService interface {
	Grade(ctx context.Context, payload dto.GradeRequest) (models.GradingResult, error)
	History(ctx context.Context, limit int) ([]dto.GradingRunResponse, error)
}

type gradingService struct {
	client    ai.Client
	runs      repository.GradingRunRepository
	validator *validator.Validate
	logger    zerolog.Logger
	model     string
	topP      float32
}

// GradingConfig groups grading service configuration values.
type GradingConfig struct {
	Model string
	TopP  float32
}

// NewGradingService constructs the grading service. The run repository may be
// nil, in which case no audit history is kept.
func NewGradingService(client ai.Client, runs repository.GradingRunRepository, validate *validator.Validate, logger zerolog.Logger, cfg GradingConfig) GradingService {
	return &gradingService{
		client:    client,
		runs:      runs,
		validator: validate,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		model:     cfg.Model,
		topP:      cfg.TopP,
	}
}

// Grade fans the per-item gradings out concurrently, grades the presentation,
// and aggregates everything into one result. Any upstream failure aborts the
// whole run; no partial results are ever returned.
func (s *gradingService) Grade(ctx context.Context, payload dto.GradeRequest) (models.GradingResult, error) {
	tracer := otel.Tracer("github.com/nbgrade/nbgrade-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.run")
	span.SetAttributes(
		attribute.Int("grading.activities", len(payload.Activities)),
		attribute.Int("grading.questions", len(payload.Questions)),
		attribute.Int("grading.days_late", payload.DaysLate),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return models.GradingResult{}, err
	}

	activities := make([]models.Activity, len(payload.Activities))
	for i, input := range payload.Activities {
		activities[i] = models.Activity{
			ID:          input.ID,
			Description: input.Description,
			Code:        input.Code,
		}
	}

	questions := make([]models.Question, len(payload.Questions))
	for i, input := range payload.Questions {
		questions[i] = models.Question{
			ID:       input.ID,
			Question: input.Question,
			Answer:   input.Answer,
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	for i := range activities {
		i := i
		group.Go(func() error {
			outcome, err := s.gradeActivity(groupCtx, activities[i], len(activities))
			if err != nil {
				return err
			}
			score := outcome.Score
			activities[i].AIScore = &score
			activities[i].AIReason = outcome.Reason
			activities[i].Completed = strings.TrimSpace(activities[i].Code) != ""
			return nil
		})
	}

	for i := range questions {
		i := i
		group.Go(func() error {
			outcome, err := s.gradeQuestion(groupCtx, questions[i], len(questions))
			if err != nil {
				return err
			}
			score := outcome.Score
			questions[i].AIScore = &score
			questions[i].AIReason = outcome.Reason
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		observability.GradingRuns().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "item_grading_failed")
		return models.GradingResult{}, err
	}

	presentation := models.PresentationBreakdown{
		Score:    0,
		MaxScore: models.PresentationMaxScore,
		Duration: payload.VideoDuration,
		AIReason: "No video provided",
	}

	if payload.VideoTranscript != "" {
		outcome, err := s.gradePresentation(ctx, payload.VideoTranscript, payload.VideoDuration, payload.NotebookDescription)
		if err != nil {
			observability.GradingRuns().WithLabelValues("failed").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "presentation_grading_failed")
			return models.GradingResult{}, err
		}

		penalty := calculateDurationPenalty(payload.VideoDuration, outcome.Score)
		netScore := outcome.Score - penalty
		if netScore < 0 {
			netScore = 0
		}

		presentation.Score = netScore
		presentation.DurationPenalty = penalty
		presentation.AIReason = outcome.Reason
	}

	result := aggregate(activities, questions, presentation, payload.DaysLate, models.SharingBonus{
		Discord:     payload.Sharing.Discord,
		SocialMedia: payload.Sharing.SocialMedia,
	})

	s.persist(ctx, result)
	observability.GradingRuns().WithLabelValues("completed").Inc()

	span.SetAttributes(
		attribute.Float64("grading.total_score", result.TotalScore),
		attribute.Float64("grading.final_percentage", result.FinalPercentage),
	)

	return result, nil
}

// History lists persisted grading runs, newest first.
func (s *gradingService) History(ctx context.Context, limit int) ([]dto.GradingRunResponse, error) {
	if s.runs == nil {
		return nil, ErrHistoryUnavailable
	}

	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GradingRunResponse, 0, len(runs))
	for _, run := range runs {
		response := dto.GradingRunResponse{
			ID:              run.ID,
			TotalScore:      run.TotalScore,
			MaxScore:        run.MaxScore,
			FinalPercentage: run.FinalPercentage,
			DaysLate:        run.DaysLate,
			CreatedAt:       run.CreatedAt,
		}
		if err := json.Unmarshal(run.Result, &response.Result); err != nil {
			s.logger.Warn().Err(err).Uint("run_id", run.ID).Msg("stored grading result is unreadable")
		}
		responses = append(responses, response)
	}

	return responses, nil
}

// persist stores the finished run for auditing. Failures are logged, never
// surfaced: auditing must not break grading.
func (s *gradingService) persist(ctx context.Context, result models.GradingResult) {
	if s.runs == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode grading result")
		return
	}

	run := models.GradingRun{
		TotalScore:      result.TotalScore,
		MaxScore:        result.MaxScore,
		FinalPercentage: result.FinalPercentage,
		DaysLate:        result.LatePenalty.DaysLate,
		Result:          datatypes.JSON(payload),
	}

	if err := s.runs.Create(ctx, &run); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist grading run")
	}
}
