package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/repository/base"
)

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{Repository: base.NewRepository(pool)}
}

// GetStudentByID finds a student by id.
func (r *StudentRepository) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	query := `
		SELECT student_id, name, email, program_level, created_at
		FROM students
		WHERE student_id = $1
	`

	var st model.Student
	err := r.QueryRow(ctx, query, id).Scan(
		&st.ID,
		&st.Name,
		&st.Email,
		&st.ProgramLevel,
		&st.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}

	return &st, nil
}

// UpsertStudent registers a student or refreshes the stored profile.
func (r *StudentRepository) UpsertStudent(ctx context.Context, st *model.Student) error {
	query := `
		INSERT INTO students (student_id, name, email, program_level)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, program_level = EXCLUDED.program_level
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query, st.ID, st.Name, st.Email, st.ProgramLevel).Scan(&st.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}

	return nil
}
