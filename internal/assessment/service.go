// internal/assessment/service.go
package assessment

import (
	"context"
	"time"

	"mortgage-readiness/internal/calculator"
	"mortgage-readiness/internal/classifier"
	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/logger"
	"mortgage-readiness/internal/common/metrics"
	"mortgage-readiness/internal/common/observability"
	"mortgage-readiness/internal/common/validation"
	"mortgage-readiness/internal/models"

	"github.com/google/uuid"
)

// Cache stores scored assessments keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Assessment, bool, error)
	Set(ctx context.Context, key string, a *models.Assessment) error
}

// History keeps an audit trail of assessments.
type History interface {
	Record(ctx context.Context, applicant models.Applicant, a *models.Assessment) error
}

const DefaultStoreTimeout = 2 * time.Second

// Options wires the optional collaborators of a Service. Nil fields disable
// the corresponding feature.
type Options struct {
	Cache         Cache
	History       History
	Observability *observability.Observability
	Logger        logger.Logger
	StoreTimeout  time.Duration
}

// Service validates an applicant, runs the decision layer and the classifier,
// and merges their outputs into one Assessment.
type Service struct {
	classifier   classifier.RiskClassifier
	cache        Cache
	history      History
	obs          *observability.Observability
	logger       logger.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

func NewService(clf classifier.RiskClassifier, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	return &Service{
		classifier:   clf,
		cache:        opts.Cache,
		history:      opts.History,
		obs:          opts.Observability,
		logger:       opts.Logger,
		storeTimeout: opts.StoreTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ModelID() string { return s.classifier.ModelID() }

// Assess scores an applicant outside of any application.
func (s *Service) Assess(ctx context.Context, a models.Applicant) (*models.Assessment, error) {
	return s.AssessApplication(ctx, "", a)
}

// AssessApplication scores an applicant on behalf of applicationID. Invalid
// applicants are rejected before any calculation. Cache and history failures
// are logged and do not fail the assessment.
func (s *Service) AssessApplication(ctx context.Context, applicationID string, a models.Applicant) (*models.Assessment, error) {
	start := time.Now()

	if result := validation.ValidateApplicant(a); !result.Valid {
		s.obs.RecordAssessment(ctx, time.Since(start), "invalid", "")
		return nil, apperrors.NewApplicantValidationFailedError(result.GetErrorMessages())
	}

	modelID := s.classifier.ModelID()
	key := CacheKey(modelID, a)

	scored, cached := s.lookup(ctx, key)
	if !cached {
		var err error
		if scored, err = s.score(a, modelID); err != nil {
			s.obs.RecordAssessment(ctx, time.Since(start), "error", "")
			return nil, err
		}
		s.store(ctx, key, scored)
	}

	out := *scored
	out.ID = uuid.NewString()
	out.ApplicationID = applicationID
	out.AssessedAt = s.now()

	s.record(ctx, a, &out)

	metrics.PredictionsTotal.WithLabelValues(string(out.Category)).Inc()
	s.obs.RecordAssessment(ctx, time.Since(start), "ok", string(out.Category))
	s.logger.Info("assessment completed", map[string]interface{}{
		"assessmentId":  out.ID,
		"applicationId": applicationID,
		"category":      string(out.Category),
		"confidence":    out.Confidence,
		"modelId":       modelID,
		"cached":        cached,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return &out, nil
}

func (s *Service) score(a models.Applicant, modelID string) (*models.Assessment, error) {
	p, err := s.classifier.PredictProba(a)
	if err != nil {
		if _, ok := apperrors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewPredictionFailedError(err)
	}

	return &models.Assessment{
		DTI:             models.Ratio(calculator.DebtToIncome(a)),
		MaxCredit:       calculator.MaxAffordableCredit(a),
		Category:        classifier.CategoryFor(p),
		Confidence:      p,
		Recommendations: calculator.Recommendations(a),
		ModelID:         modelID,
	}, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*models.Assessment, bool) {
	if s.cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	got, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.AssessmentCacheResults.WithLabelValues("error").Inc()
		s.logger.Warn("assessment cache lookup failed", map[string]interface{}{"key": key, "error": err})
		return nil, false
	case !ok:
		metrics.AssessmentCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.AssessmentCacheResults.WithLabelValues("hit").Inc()
		return got, true
	}
}

func (s *Service) store(ctx context.Context, key string, a *models.Assessment) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, key, a); err != nil {
		s.logger.Warn("assessment cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}

func (s *Service) record(ctx context.Context, applicant models.Applicant, a *models.Assessment) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.history.Record(ctx, applicant, a); err != nil {
		s.logger.Warn("assessment history write failed", map[string]interface{}{"assessmentId": a.ID, "error": err})
	}
}
