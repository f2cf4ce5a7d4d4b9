// internal/workers/mortgage/assess-readiness/handler.go
package assessreadiness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/logger"
	"mortgage-readiness/internal/common/metrics"
	"mortgage-readiness/internal/common/validation"
	"mortgage-readiness/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "assess-mortgage-readiness"

// Assessor is the part of assessment.Service the worker depends on.
type Assessor interface {
	AssessApplication(ctx context.Context, applicationID string, a models.Applicant) (*models.Assessment, error)
}

type Handler struct {
	config       *Config
	assessor     Assessor
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, assessor Assessor, log logger.Logger) (*Handler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if assessor == nil {
		return nil, fmt.Errorf("%s requires an assessor", TaskType)
	}

	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		assessor:     assessor,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute assesses an already parsed input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	a, err := h.assessor.AssessApplication(ctx, input.ApplicationID, input.Applicant)
	if err != nil {
		return nil, err
	}

	h.logger.Info("applicant assessed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"assessmentId":  a.ID,
		"category":      string(a.Category),
		"confidence":    a.Confidence,
	})

	return &Output{
		Assessment:        a,
		ReadinessCategory: string(a.Category),
		MortgageReady:     a.Category == models.CategoryReady,
	}, nil
}

// parseInput validates the raw applicant document before decoding it, so
// that missing fields are reported instead of decoding to zero values.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "INPUT_PARSING_FAILED",
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	input := &Input{}
	if id, ok := variables["applicationId"].(string); ok {
		input.ApplicationID = id
	}

	raw, ok := variables["applicant"].(map[string]interface{})
	if !ok {
		return nil, errors.NewApplicantValidationFailedError([]string{"applicant: object is required"})
	}
	if result := validation.ValidateDocument(raw); !result.Valid {
		return nil, errors.NewApplicantValidationFailedError(result.GetErrorMessages())
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.NewApplicantValidationFailedError([]string{err.Error()})
	}
	if input.Applicant, err = models.DecodeApplicant(encoded); err != nil {
		return nil, errors.NewApplicantValidationFailedError([]string{err.Error()})
	}
	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}
