package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/repository/base"
)

// AdvisorRepository reads the advisor directory. Advisors are reference
// data seeded by migrations; nothing here writes.
type AdvisorRepository struct {
	*base.Repository
}

func NewAdvisorRepository(pool *pgxpool.Pool) *AdvisorRepository {
	return &AdvisorRepository{Repository: base.NewRepository(pool)}
}

const advisorColumns = `advisor_id, name, email, title, program_level, workday_start, workday_end`

// GetByID finds an advisor by its unique id.
func (r *AdvisorRepository) GetByID(ctx context.Context, id string) (*model.Advisor, error) {
	query := `SELECT ` + advisorColumns + ` FROM advisors WHERE advisor_id = $1`

	var adv model.Advisor
	err := r.QueryRow(ctx, query, id).Scan(
		&adv.ID,
		&adv.Name,
		&adv.Email,
		&adv.Title,
		&adv.ProgramLevel,
		&adv.WorkdayStart,
		&adv.WorkdayEnd,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get advisor by id: %w", err)
	}

	return &adv, nil
}

// GetByProgram lists advisors serving a program level, ordered by name.
func (r *AdvisorRepository) GetByProgram(ctx context.Context, level model.ProgramLevel) ([]*model.Advisor, error) {
	query := `SELECT ` + advisorColumns + ` FROM advisors WHERE program_level = $1 ORDER BY name`

	rows, err := r.Query(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("get advisors by program: %w", err)
	}
	defer rows.Close()

	var advisors []*model.Advisor
	for rows.Next() {
		var adv model.Advisor
		err := rows.Scan(
			&adv.ID,
			&adv.Name,
			&adv.Email,
			&adv.Title,
			&adv.ProgramLevel,
			&adv.WorkdayStart,
			&adv.WorkdayEnd,
		)
		if err != nil {
			return nil, fmt.Errorf("scan advisor: %w", err)
		}
		advisors = append(advisors, &adv)
	}

	return advisors, nil
}
