package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
	"github.com/cmx-713/adaptive-english-writing/internal/scoring"
	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
	"github.com/cmx-713/adaptive-english-writing/pkg/llmtext"
)

// ErrDrillNotFound indicates the drill set does not exist or belongs to
// someone else.
var ErrDrillNotFound = errors.New("drill set not found")

// ErrDrillAlreadyReviewed indicates answers were submitted twice.
var ErrDrillAlreadyReviewed = errors.New("drill set already reviewed")

// ErrAnswerCountMismatch indicates the submission does not carry one answer
// per item.
var ErrAnswerCountMismatch = errors.New("answer count does not match item count")

const maxDrillItems = 10

// DrillService generates targeted exercise sets and reviews answers.
type DrillService interface {
	Generate(ctx context.Context, studentID uint, payload dto.DrillGenerateRequest) (dto.DrillSetResponse, error)
	Submit(ctx context.Context, studentID, drillID uint, payload dto.DrillSubmitRequest) (dto.DrillSetResponse, error)
	Get(ctx context.Context, studentID, drillID uint) (dto.DrillSetResponse, error)
	List(ctx context.Context, studentID uint) ([]dto.DrillSetResponse, error)
}

type drillService struct {
	drills    repository.DrillRepository
	essays    repository.EssayRepository
	generator llm.Generator
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDrillService builds a drill service.
func NewDrillService(drills repository.DrillRepository, essays repository.EssayRepository, generator llm.Generator, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) DrillService {
	return &drillService{
		drills:    drills,
		essays:    essays,
		generator: generator,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "drill_service").Logger(),
	}
}

type drillItem struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
	Hint   string `json:"hint,omitempty"`
	Answer string `json:"answer"`
}

type drillPayload struct {
	Items []drillItem `json:"items"`
}

type drillFeedbackPayload struct {
	Feedback []struct {
		Correct bool   `json:"correct"`
		Comment string `json:"comment"`
	} `json:"feedback"`
}

func (s *drillService) Generate(ctx context.Context, studentID uint, payload dto.DrillGenerateRequest) (dto.DrillSetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DrillSetResponse{}, err
	}

	focus := payload.Focus
	level := payload.Level
	var essayID *uint
	var issues []string

	if payload.EssayID != nil {
		essay, err := s.ownedEssay(ctx, studentID, *payload.EssayID)
		if err != nil {
			return dto.DrillSetResponse{}, err
		}
		if essay.Report == nil {
			return dto.DrillSetResponse{}, ErrEssayNotGraded
		}

		essayID = &essay.ID
		if focus == "" {
			focus = weakestDimension(essay.Report)
		}
		if level == "" {
			level = essay.Level
		}
		issues = issueLines(essay.Report, 5)
	}
	if level == "" {
		level = models.LevelCET4
	}

	ctx, span := otel.Tracer("aew.drills").Start(ctx, "drill.generate")
	defer span.End()

	raw, err := s.generator.Generate(ctx, llm.DrillPrompt(level, focus, issues))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "drill generation failed")

		return dto.DrillSetResponse{}, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}

	var parsed drillPayload
	if err := json.Unmarshal([]byte(llmtext.Sanitize(raw)), &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "drill response unparseable")

		return dto.DrillSetResponse{}, fmt.Errorf("%w: %s", ErrModelResponseInvalid, err)
	}

	items := make([]drillItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if strings.TrimSpace(item.Prompt) == "" {
			continue
		}
		items = append(items, item)
		if len(items) == maxDrillItems {
			break
		}
	}
	if len(items) == 0 {
		return dto.DrillSetResponse{}, fmt.Errorf("%w: no usable items", ErrModelResponseInvalid)
	}

	itemsJSON, _ := json.Marshal(items)
	set := models.DrillSet{
		StudentID: studentID,
		EssayID:   essayID,
		Focus:     focus,
		Level:     level,
		Items:     datatypes.JSON(itemsJSON),
		Status:    models.DrillStatusOpen,
	}
	if err := s.drills.Create(ctx, &set); err != nil {
		return dto.DrillSetResponse{}, err
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    studentID,
		ActorRole:  "student",
		Action:     "drill.generated",
		EntityType: "drill",
		EntityID:   &set.ID,
		Metadata:   map[string]interface{}{"focus": focus, "items": len(items)},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record drill activity")
	}

	return dto.NewDrillSetResponse(set), nil
}

func (s *drillService) Submit(ctx context.Context, studentID, drillID uint, payload dto.DrillSubmitRequest) (dto.DrillSetResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DrillSetResponse{}, err
	}

	set, err := s.getOwned(ctx, studentID, drillID)
	if err != nil {
		return dto.DrillSetResponse{}, err
	}
	if set.IsReviewed() {
		return dto.DrillSetResponse{}, ErrDrillAlreadyReviewed
	}

	var items []drillItem
	if err := json.Unmarshal(set.Items, &items); err != nil {
		return dto.DrillSetResponse{}, fmt.Errorf("stored drill items unreadable: %w", err)
	}
	if len(payload.Answers) != len(items) {
		return dto.DrillSetResponse{}, fmt.Errorf("%w: %d answers for %d items", ErrAnswerCountMismatch, len(payload.Answers), len(items))
	}

	answersJSON, _ := json.Marshal(payload.Answers)

	ctx, span := otel.Tracer("aew.drills").Start(ctx, "drill.review")
	defer span.End()

	raw, err := s.generator.Generate(ctx, llm.DrillFeedbackPrompt(string(set.Items), string(answersJSON)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "drill review failed")

		return dto.DrillSetResponse{}, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}

	var parsed drillFeedbackPayload
	if err := json.Unmarshal([]byte(llmtext.Sanitize(raw)), &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "drill review unparseable")

		return dto.DrillSetResponse{}, fmt.Errorf("%w: %s", ErrModelResponseInvalid, err)
	}

	// One verdict per item regardless of how many the model returned.
	feedback := make([]dto.DrillFeedbackResponse, len(items))
	correct := 0
	for i := range items {
		if i < len(parsed.Feedback) {
			feedback[i] = dto.DrillFeedbackResponse{
				Correct: parsed.Feedback[i].Correct,
				Comment: parsed.Feedback[i].Comment,
			}
		} else {
			feedback[i] = dto.DrillFeedbackResponse{Comment: "No feedback returned for this item."}
		}
		if feedback[i].Correct {
			correct++
		}
	}
	feedbackJSON, _ := json.Marshal(feedback)

	set.Answers = datatypes.JSON(answersJSON)
	set.Feedback = datatypes.JSON(feedbackJSON)
	set.Status = models.DrillStatusReviewed
	if err := s.drills.Update(ctx, &set); err != nil {
		return dto.DrillSetResponse{}, err
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    studentID,
		ActorRole:  "student",
		Action:     "drill.submitted",
		EntityType: "drill",
		EntityID:   &set.ID,
		Metadata:   map[string]interface{}{"correct": correct, "items": len(items)},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record drill activity")
	}

	return dto.NewDrillSetResponse(set), nil
}

func (s *drillService) Get(ctx context.Context, studentID, drillID uint) (dto.DrillSetResponse, error) {
	set, err := s.getOwned(ctx, studentID, drillID)
	if err != nil {
		return dto.DrillSetResponse{}, err
	}

	return dto.NewDrillSetResponse(set), nil
}

func (s *drillService) List(ctx context.Context, studentID uint) ([]dto.DrillSetResponse, error) {
	sets, err := s.drills.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DrillSetResponse, 0, len(sets))
	for _, set := range sets {
		responses = append(responses, dto.NewDrillSetResponse(set))
	}

	return responses, nil
}

func (s *drillService) getOwned(ctx context.Context, studentID, drillID uint) (models.DrillSet, error) {
	set, err := s.drills.GetByID(ctx, drillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DrillSet{}, ErrDrillNotFound
		}

		return models.DrillSet{}, err
	}
	if set.StudentID != studentID {
		return models.DrillSet{}, ErrDrillNotFound
	}

	return set, nil
}

func (s *drillService) ownedEssay(ctx context.Context, studentID, essayID uint) (models.Essay, error) {
	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}

		return models.Essay{}, err
	}
	if essay.StudentID != studentID {
		return models.Essay{}, ErrEssayNotFound
	}

	return essay, nil
}

// weakestDimension picks the dimension with the lowest share of its maximum.
// Ties go to the dimension graded first on the answer sheet.
func weakestDimension(report *models.GradeReport) string {
	dims := []struct {
		name  string
		score float64
		max   float64
	}{
		{"content", report.Content, scoring.MaxContent},
		{"organization", report.Organization, scoring.MaxOrganization},
		{"proficiency", report.Proficiency, scoring.MaxProficiency},
		{"clarity", report.Clarity, scoring.MaxClarity},
	}

	weakest := dims[0]
	for _, d := range dims[1:] {
		if d.score/d.max < weakest.score/weakest.max {
			weakest = d
		}
	}

	return weakest.name
}

// issueLines flattens stored grading issues into prompt bullet lines.
func issueLines(report *models.GradeReport, limit int) []string {
	if len(report.Issues) == 0 {
		return nil
	}

	var issues []dto.IssueResponse
	if err := json.Unmarshal(report.Issues, &issues); err != nil {
		return nil
	}

	lines := make([]string, 0, limit)
	for _, issue := range issues {
		if issue.Excerpt == "" {
			continue
		}
		line := issue.Excerpt
		if issue.Advice != "" {
			line += " (" + issue.Advice + ")"
		}
		lines = append(lines, line)
		if len(lines) == limit {
			break
		}
	}

	return lines
}
