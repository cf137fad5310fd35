package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
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

// ErrEssayNotFound indicates the essay does not exist or belongs to someone
// else. Ownership failures deliberately look identical to missing rows.
var ErrEssayNotFound = errors.New("essay not found")

// ErrEssayNotGraded indicates an operation that needs a grade report ran
// against an essay that has none.
var ErrEssayNotGraded = errors.New("essay has no grade report")

// ErrEssayTooShort indicates the essay had too few words left once markup
// was stripped to be worth grading.
var ErrEssayTooShort = errors.New("essay too short after sanitisation")

// GradingService runs the submit-and-grade pipeline and serves graded essays.
type GradingService interface {
	Submit(ctx context.Context, studentID uint, payload dto.EssaySubmitRequest) (dto.EssayResponse, error)
	Get(ctx context.Context, studentID, essayID uint) (dto.EssayResponse, error)
	List(ctx context.Context, studentID uint, filter dto.EssayFilter) ([]dto.EssayListItem, error)
	Polish(ctx context.Context, studentID, essayID uint) (dto.PolishResponse, error)
}

type gradingService struct {
	essays    repository.EssayRepository
	topics    repository.TopicRepository
	generator llm.Generator
	activity  ActivityRecorder
	cache     *redis.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	rubric    string
	model     string
	logger    zerolog.Logger
}

// NewGradingService builds the grading pipeline. rubric overrides the default
// grading scale when non-empty; model is recorded on every report it writes.
// cache may be nil; when present, fresh grades evict stale dashboards.
func NewGradingService(essays repository.EssayRepository, topics repository.TopicRepository, generator llm.Generator, activity ActivityRecorder, cache *redis.Client, validate *validator.Validate, rubric, model string, logger zerolog.Logger) GradingService {
	if rubric == "" {
		rubric = llm.DefaultRubric
	}
	return &gradingService{
		essays:    essays,
		topics:    topics,
		generator: generator,
		activity:  activity,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		rubric:    rubric,
		model:     model,
		logger:    logger.With().Str("component", "grading_service").Logger(),
	}
}

type gradeScores struct {
	Content      scoring.Number `json:"content"`
	Organization scoring.Number `json:"organization"`
	Proficiency  scoring.Number `json:"proficiency"`
	Clarity      scoring.Number `json:"clarity"`
}

type gradeIssue struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
	Advice   string `json:"advice"`
}

type gradePayload struct {
	Scores      gradeScores  `json:"scores"`
	Issues      []gradeIssue `json:"issues"`
	Suggestions []string     `json:"suggestions"`
	Summary     string       `json:"summary"`
}

type polishPayload struct {
	Polished string   `json:"polished"`
	Notes    []string `json:"notes"`
}

func (s *gradingService) Submit(ctx context.Context, studentID uint, payload dto.EssaySubmitRequest) (dto.EssayResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EssayResponse{}, err
	}

	title := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(payload.Topic)))
	level := payload.Level

	if payload.TopicID != nil {
		topic, err := s.topics.GetByID(ctx, *payload.TopicID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.EssayResponse{}, ErrTopicNotFound
			}

			return dto.EssayResponse{}, err
		}
		title = topic.Title
		if level == "" {
			level = topic.Level
		}
	}
	if level == "" {
		level = models.LevelCET4
	}

	content := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(payload.Content)))
	words := len(strings.Fields(content))
	if words < 10 {
		return dto.EssayResponse{}, fmt.Errorf("%w: %d words", ErrEssayTooShort, words)
	}

	essay := models.Essay{
		StudentID: studentID,
		TopicID:   payload.TopicID,
		Topic:     title,
		Level:     level,
		Content:   content,
		WordCount: words,
		Status:    models.EssayStatusSubmitted,
	}
	if err := s.essays.Create(ctx, &essay); err != nil {
		return dto.EssayResponse{}, err
	}

	ctx, span := otel.Tracer("aew.grading").Start(ctx, "essay.grade")
	defer span.End()

	raw, err := s.generator.Generate(ctx, llm.GradePrompt(s.rubric, essay.Topic, essay.Level, essay.Content, essay.WordCount))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading generation failed")
		s.markFailed(ctx, &essay)

		return dto.EssayResponse{}, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}

	var parsed gradePayload
	if err := json.Unmarshal([]byte(llmtext.Sanitize(raw)), &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading response unparseable")
		s.logger.Error().Err(err).Uint("essay_id", essay.ID).Str("raw", snippet(raw)).Msg("grading response did not parse")
		s.markFailed(ctx, &essay)

		return dto.EssayResponse{}, fmt.Errorf("%w: %s", ErrModelResponseInvalid, err)
	}

	critical := 0
	for _, issue := range parsed.Issues {
		if strings.EqualFold(issue.Severity, "critical") {
			critical++
		}
	}

	result := scoring.Normalize(scoring.Raw{
		Content:      parsed.Scores.Content.Float(),
		Organization: parsed.Scores.Organization.Float(),
		Proficiency:  parsed.Scores.Proficiency.Float(),
		Clarity:      parsed.Scores.Clarity.Float(),
	}, critical)

	issues := make([]dto.IssueResponse, 0, len(parsed.Issues))
	for _, issue := range parsed.Issues {
		issues = append(issues, dto.IssueResponse{
			Severity: strings.ToLower(issue.Severity),
			Category: strings.ToLower(issue.Category),
			Excerpt:  issue.Excerpt,
			Advice:   issue.Advice,
		})
	}
	issuesJSON, _ := json.Marshal(issues)
	suggestionsJSON, _ := json.Marshal(emptyIfNil(parsed.Suggestions))

	report := models.GradeReport{
		EssayID:      essay.ID,
		Content:      result.Content,
		Organization: result.Organization,
		Proficiency:  result.Proficiency,
		Clarity:      result.Clarity,
		Total:        result.Total,
		Issues:       datatypes.JSON(issuesJSON),
		Suggestions:  datatypes.JSON(suggestionsJSON),
		Summary:      parsed.Summary,
		Model:        s.model,
	}
	if err := s.essays.SaveReport(ctx, &report); err != nil {
		s.markFailed(ctx, &essay)

		return dto.EssayResponse{}, err
	}

	essay.Status = models.EssayStatusGraded
	if err := s.essays.Update(ctx, &essay); err != nil {
		return dto.EssayResponse{}, err
	}
	essay.Report = &report
	s.evictDashboards(ctx, studentID)

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    studentID,
		ActorRole:  "student",
		Action:     "essay.graded",
		EntityType: "essay",
		EntityID:   &essay.ID,
		Metadata: map[string]interface{}{
			"total":    result.Total,
			"level":    essay.Level,
			"critical": critical,
		},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record grading activity")
	}

	s.logger.Info().
		Uint("essay_id", essay.ID).
		Uint("student_id", studentID).
		Float64("total", result.Total).
		Int("critical_issues", critical).
		Msg("essay graded")

	return dto.NewEssayResponse(essay), nil
}

func (s *gradingService) Get(ctx context.Context, studentID, essayID uint) (dto.EssayResponse, error) {
	essay, err := s.getOwned(ctx, studentID, essayID)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	return dto.NewEssayResponse(essay), nil
}

func (s *gradingService) List(ctx context.Context, studentID uint, filter dto.EssayFilter) ([]dto.EssayListItem, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.EssayFilter{}
	if filter.Status != nil {
		repoFilter.Status = *filter.Status
	}
	if filter.Level != nil {
		repoFilter.Level = *filter.Level
	}

	essays, err := s.essays.ListByStudent(ctx, studentID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EssayListItem, 0, len(essays))
	for _, essay := range essays {
		items = append(items, dto.NewEssayListItem(essay))
	}

	return items, nil
}

func (s *gradingService) Polish(ctx context.Context, studentID, essayID uint) (dto.PolishResponse, error) {
	essay, err := s.getOwned(ctx, studentID, essayID)
	if err != nil {
		return dto.PolishResponse{}, err
	}
	if essay.Report == nil {
		return dto.PolishResponse{}, ErrEssayNotGraded
	}

	if essay.Report.Polished != "" {
		return dto.PolishResponse{EssayID: essay.ID, Polished: essay.Report.Polished, Notes: []string{}}, nil
	}

	ctx, span := otel.Tracer("aew.grading").Start(ctx, "essay.polish")
	defer span.End()

	raw, err := s.generator.Generate(ctx, llm.PolishPrompt(essay.Content, essay.Level))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "polish generation failed")

		return dto.PolishResponse{}, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}

	var parsed polishPayload
	if err := json.Unmarshal([]byte(llmtext.Sanitize(raw)), &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "polish response unparseable")

		return dto.PolishResponse{}, fmt.Errorf("%w: %s", ErrModelResponseInvalid, err)
	}
	if strings.TrimSpace(parsed.Polished) == "" {
		return dto.PolishResponse{}, fmt.Errorf("%w: empty rewrite", ErrModelResponseInvalid)
	}

	essay.Report.Polished = parsed.Polished
	if err := s.essays.SaveReport(ctx, essay.Report); err != nil {
		return dto.PolishResponse{}, err
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    studentID,
		ActorRole:  "student",
		Action:     "essay.polished",
		EntityType: "essay",
		EntityID:   &essay.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record polish activity")
	}

	return dto.PolishResponse{
		EssayID:  essay.ID,
		Polished: parsed.Polished,
		Notes:    emptyIfNil(parsed.Notes),
	}, nil
}

func (s *gradingService) getOwned(ctx context.Context, studentID, essayID uint) (models.Essay, error) {
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

func (s *gradingService) markFailed(ctx context.Context, essay *models.Essay) {
	essay.Status = models.EssayStatusFailed
	if err := s.essays.Update(ctx, essay); err != nil {
		s.logger.Error().Err(err).Uint("essay_id", essay.ID).Msg("failed to mark essay failed")
	}
}

// evictDashboards drops cached aggregates that a fresh grade invalidates.
func (s *gradingService) evictDashboards(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(studentID), teacherOverviewCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to evict dashboard caches")
	}
}

// snippet trims model output for log lines.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 160 {
		return s[:160] + "..."
	}
	return s
}
