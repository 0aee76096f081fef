package identity

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
)

type Config struct {
	DB *pgxpool.Pool
}

// Service resolves student and teacher identities. Students are created on
// first sight; teachers are pre-provisioned and matched exactly.
type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{db: c.DB}
}

type StudentLoginRequest struct {
	StudentNumber string
	StudentName   string
}

// StudentLogin resolves a student by number, creating the account on first
// sight. A number already registered under a different name is rejected
// instead of silently creating a duplicate.
func (s *Service) StudentLogin(ctx context.Context, req StudentLoginRequest) (*domain.Student, error) {
	number := strings.TrimSpace(req.StudentNumber)
	name := strings.TrimSpace(req.StudentName)
	if number == "" || name == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("student number and name must not be empty"))
	}

	var student domain.Student
	err := s.db.QueryRow(ctx, `
SELECT id, student_number, student_name, create_time FROM students WHERE student_number = $1;`, number).
		Scan(&student.ID, &student.StudentNumber, &student.Name, &student.CreateTime)

	switch {
	case err == nil:
		if student.Name != name {
			return nil, errors.New(errors.CodeUnauthenticated,
				errors.WithMessagef("student number %s is registered under a different name", number))
		}
		return &student, nil

	case stderrors.Is(err, pgx.ErrNoRows):
		return s.createStudent(ctx, number, name)

	default:
		return nil, fmt.Errorf("identity: lookup student: %w", err)
	}
}

func (s *Service) createStudent(ctx context.Context, number, name string) (*domain.Student, error) {
	var student domain.Student
	err := s.db.QueryRow(ctx, `
INSERT INTO students (student_number, student_name) VALUES ($1, $2)
RETURNING id, student_number, student_name, create_time;`, number, name).
		Scan(&student.ID, &student.StudentNumber, &student.Name, &student.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("identity: create student: %w", err)
	}

	slog.InfoContext(ctx, "identity: new student account", "student_number", number)
	return &student, nil
}

type TeacherLoginRequest struct {
	TeacherCode string
	Password    string
}

// TeacherLogin resolves a teacher by code. The password must match exactly;
// any mismatch is an authentication failure, never a panic.
func (s *Service) TeacherLogin(ctx context.Context, req TeacherLoginRequest) (*domain.Teacher, error) {
	if req.TeacherCode == "" || req.Password == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("teacher code and password must not be empty"))
	}

	var (
		teacher  domain.Teacher
		password string
	)
	err := s.db.QueryRow(ctx, `
SELECT id, teacher_code, teacher_name, password FROM teachers WHERE teacher_code = $1;`, req.TeacherCode).
		Scan(&teacher.ID, &teacher.Code, &teacher.Name, &password)

	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("invalid credentials"))
	}
	if err != nil {
		return nil, fmt.Errorf("identity: lookup teacher: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(req.Password)) != 1 {
		return nil, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("invalid credentials"))
	}

	return &teacher, nil
}
