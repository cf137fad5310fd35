package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

// ErrTeacherCodeInvalid indicates the supplied teacher code does not match.
var ErrTeacherCodeInvalid = errors.New("teacher code is not valid")

// ErrStudentNotFound indicates the account does not exist.
var ErrStudentNotFound = errors.New("student not found")

// AuthService signs students in and issues bearer tokens. Sign-in is
// passwordless: a name and student number identify the account, and the
// account is created the first time the pair is seen.
type AuthService interface {
	SignIn(ctx context.Context, payload dto.SignInRequest) (dto.SignInResponse, error)
	GetProfile(ctx context.Context, studentID uint) (dto.StudentResponse, error)
}

type authService struct {
	students    repository.StudentRepository
	activity    ActivityRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	jwtSecret   string
	tokenTTL    time.Duration
	teacherCode string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAuthService builds the auth service. teacherCode may be empty, in which
// case the teacher role cannot be claimed at sign-in.
func NewAuthService(students repository.StudentRepository, activity ActivityRecorder, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration, teacherCode string, logger zerolog.Logger) AuthService {
	return &authService{
		students:    students,
		activity:    activity,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		teacherCode: teacherCode,
		logger:      logger.With().Str("component", "auth_service").Logger(),
		now:         time.Now,
	}
}

func (s *authService) SignIn(ctx context.Context, payload dto.SignInRequest) (dto.SignInResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SignInResponse{}, err
	}

	name := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(payload.Name)))
	if len(name) < 2 {
		return dto.SignInResponse{}, fmt.Errorf("name must keep at least two characters after sanitisation")
	}

	wantsTeacher := payload.TeacherCode != ""
	if wantsTeacher && (s.teacherCode == "" || payload.TeacherCode != s.teacherCode) {
		return dto.SignInResponse{}, ErrTeacherCodeInvalid
	}

	student, err := s.students.GetByStudentNo(ctx, payload.StudentNo)
	switch {
	case err == nil:
		changed := false
		if student.Name != name {
			student.Name = name
			changed = true
		}
		if wantsTeacher && student.Role != models.RoleTeacher {
			student.Role = models.RoleTeacher
			changed = true
		}
		if changed {
			if err := s.students.Update(ctx, &student); err != nil {
				return dto.SignInResponse{}, fmt.Errorf("update student: %w", err)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		role := models.RoleStudent
		if wantsTeacher {
			role = models.RoleTeacher
		}
		student = models.Student{Name: name, StudentNo: payload.StudentNo, Role: role}
		if err := s.students.Create(ctx, &student); err != nil {
			return dto.SignInResponse{}, fmt.Errorf("create student: %w", err)
		}
	default:
		return dto.SignInResponse{}, err
	}

	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.issueToken(student, expiresAt)
	if err != nil {
		return dto.SignInResponse{}, fmt.Errorf("issue token: %w", err)
	}

	entityID := student.ID
	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    student.ID,
		ActorRole:  student.Role,
		Action:     "auth.sign_in",
		EntityType: "student",
		EntityID:   &entityID,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to record sign-in activity")
	}

	return dto.SignInResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Student:   dto.NewStudentResponse(student),
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, studentID uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}

		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *authService) issueToken(student models.Student, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  student.ID,
		"name": student.Name,
		"role": student.Role,
		"iat":  s.now().Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
