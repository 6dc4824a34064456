package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"feedbacksurvey/internal/cache"
	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/repository"
	"feedbacksurvey/internal/survey"
)

// statsTextLimit is how many recent text answers Stats returns per question
const statsTextLimit = 10

// ResponseService records confirmed submissions and reports on them
type ResponseService struct {
	repo  repository.ResponseRepo
	stats cache.StatsCache
	q     *survey.Questionnaire
	log   *zap.Logger
}

// NewResponseService creates a new response service
func NewResponseService(repo repository.ResponseRepo, stats cache.StatsCache, q *survey.Questionnaire, log *zap.Logger) *ResponseService {
	return &ResponseService{
		repo:  repo,
		stats: stats,
		q:     q,
		log:   log,
	}
}

// Record stores one confirmed submission and updates the tallies.
// A tally failure is logged; the stored response is still returned.
func (s *ResponseService) Record(ctx context.Context, sessionID, channel string, sub survey.Submission) (*model.Response, error) {
	resp := &model.Response{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Channel:     channel,
		Answers:     sub.Answers,
		StartedAt:   sub.StartedAt,
		SubmittedAt: sub.SubmittedAt,
	}
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = time.Now()
	}

	if err := s.repo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	if err := s.stats.Record(ctx, resp.Answers); err != nil {
		s.log.Warn("failed to update answer tallies",
			zap.String("response", resp.ID),
			zap.Error(err),
		)
	}

	s.log.Info("response recorded",
		zap.String("response", resp.ID),
		zap.String("session", sessionID),
		zap.String("channel", channel),
	)
	return resp, nil
}

// List returns recent responses, newest first
func (s *ResponseService) List(ctx context.Context, limit int) ([]*model.Response, error) {
	return s.repo.List(ctx, limit)
}

// Get returns one stored response
func (s *ResponseService) Get(ctx context.Context, id string) (*model.Response, error) {
	return s.repo.GetByID(ctx, id)
}

// Stats summarizes every question of the active questionnaire
func (s *ResponseService) Stats(ctx context.Context) (*model.StatsReport, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}

	report := &model.StatsReport{Responses: total}
	for _, q := range s.q.Questions() {
		qs := model.QuestionStats{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Kind:       q.Kind,
		}

		switch q.Kind {
		case model.QuestionKindRating:
			counts, err := s.stats.Counts(ctx, q.ID)
			if err != nil {
				return nil, fmt.Errorf("counts for question %d: %w", q.ID, err)
			}
			var sum int64
			for value, n := range counts {
				qs.Total += n
				sum += int64(value) * n
			}
			if qs.Total > 0 {
				qs.Average = float64(sum) / float64(qs.Total)
			}
			qs.Counts = counts
		case model.QuestionKindText:
			texts, err := s.stats.Texts(ctx, q.ID, statsTextLimit)
			if err != nil {
				return nil, fmt.Errorf("texts for question %d: %w", q.ID, err)
			}
			qs.Texts = texts
			if qs.Total, err = s.stats.TextTotal(ctx, q.ID); err != nil {
				return nil, fmt.Errorf("text total for question %d: %w", q.ID, err)
			}
		}

		report.Questions = append(report.Questions, qs)
	}
	return report, nil
}
