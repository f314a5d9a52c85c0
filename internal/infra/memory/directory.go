package memory

import (
	"context"
	"sync"

	"classroom-quiz-service/internal/domain"
)

// Directory is a static profile directory, seeded from configuration or tests.
type Directory struct {
	mu       sync.RWMutex
	teachers map[string]domain.Profile
	students map[string]domain.Profile
}

func NewDirectory(teachers, students []domain.Profile) *Directory {
	d := &Directory{
		teachers: make(map[string]domain.Profile, len(teachers)),
		students: make(map[string]domain.Profile, len(students)),
	}
	for _, p := range teachers {
		d.teachers[p.ID] = p
	}
	for _, p := range students {
		d.students[p.ID] = p
	}
	return d
}

func (d *Directory) Teacher(_ context.Context, id string) (domain.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.teachers[id]; ok {
		return p, nil
	}
	return domain.Profile{}, domain.ErrNotFound
}

func (d *Directory) Student(_ context.Context, id string) (domain.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.students[id]; ok {
		return p, nil
	}
	return domain.Profile{}, domain.ErrNotFound
}

// AddStudent registers or replaces a student profile.
func (d *Directory) AddStudent(p domain.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.students[p.ID] = p
}

// AddTeacher registers or replaces a teacher profile.
func (d *Directory) AddTeacher(p domain.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teachers[p.ID] = p
}
