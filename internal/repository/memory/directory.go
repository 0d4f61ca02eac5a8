package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campus-advising/advising_bot/internal/model"
)

// Directory is the in-process advisor and student directory used alongside
// AppointmentStore when no database is configured.
type Directory struct {
	mu       sync.RWMutex
	advisors map[string]*model.Advisor
	students map[string]*model.Student
}

func NewDirectory(advisors ...*model.Advisor) *Directory {
	d := &Directory{
		advisors: make(map[string]*model.Advisor),
		students: make(map[string]*model.Student),
	}
	for _, adv := range advisors {
		d.advisors[adv.ID] = adv
	}
	return d
}

// GetByID finds an advisor, nil when unknown.
func (d *Directory) GetByID(_ context.Context, id string) (*model.Advisor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	adv, ok := d.advisors[id]
	if !ok {
		return nil, nil
	}
	out := *adv
	return &out, nil
}

// GetByProgram lists advisors for a program level ordered by name.
func (d *Directory) GetByProgram(_ context.Context, level model.ProgramLevel) ([]*model.Advisor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var advisors []*model.Advisor
	for _, adv := range d.advisors {
		if adv.ProgramLevel == level {
			out := *adv
			advisors = append(advisors, &out)
		}
	}

	sort.Slice(advisors, func(i, j int) bool { return advisors[i].Name < advisors[j].Name })

	return advisors, nil
}

// GetStudentByID finds a student, nil when unknown.
func (d *Directory) GetStudentByID(_ context.Context, id string) (*model.Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st, ok := d.students[id]
	if !ok {
		return nil, nil
	}
	out := *st
	return &out, nil
}

// UpsertStudent registers or refreshes a student profile.
func (d *Directory) UpsertStudent(_ context.Context, st *model.Student) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.students[st.ID]; ok {
		st.CreatedAt = existing.CreatedAt
	} else if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}

	stored := *st
	d.students[st.ID] = &stored

	return nil
}
