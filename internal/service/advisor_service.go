package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/campus-advising/advising_bot/internal/model"
)

// AdvisorDirectory is the read-only advisor lookup, satisfied by the pgx
// repository and the in-memory directory.
type AdvisorDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Advisor, error)
	GetByProgram(ctx context.Context, level model.ProgramLevel) ([]*model.Advisor, error)
}

// AdvisorService answers directory queries for the conversation engine.
type AdvisorService struct {
	dir AdvisorDirectory
}

func NewAdvisorService(dir AdvisorDirectory) *AdvisorService {
	return &AdvisorService{dir: dir}
}

// ForProgram lists the advisors eligible for a program level.
func (s *AdvisorService) ForProgram(ctx context.Context, level model.ProgramLevel) ([]*model.Advisor, error) {
	return s.dir.GetByProgram(ctx, level)
}

// GetByID finds one advisor, nil when unknown.
func (s *AdvisorService) GetByID(ctx context.Context, id string) (*model.Advisor, error) {
	return s.dir.GetByID(ctx, id)
}

// MatchAdvisor resolves free-text input against a candidate list: a 1-based
// list index, an exact id, a case-insensitive substring of name or email in
// either direction, or any input word longer than three characters hitting
// the name. Returns nil when nothing matches.
func MatchAdvisor(input string, advisors []*model.Advisor) *model.Advisor {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return nil
	}

	if idx, err := strconv.Atoi(text); err == nil {
		if idx >= 1 && idx <= len(advisors) {
			return advisors[idx-1]
		}
		return nil
	}

	for _, adv := range advisors {
		name := strings.ToLower(adv.Name)
		email := strings.ToLower(adv.Email)

		if text == strings.ToLower(adv.ID) || text == email {
			return adv
		}
		if strings.Contains(name, text) || strings.Contains(text, name) {
			return adv
		}
		if strings.Contains(text, email) {
			return adv
		}
		for _, word := range strings.Fields(text) {
			if len(word) > 3 && strings.Contains(name, word) {
				return adv
			}
		}
	}

	return nil
}
