package scheduling

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

type DepartmentService struct {
	store DepartmentStore
	log   *zap.Logger
}

func NewDepartmentService(store DepartmentStore, log *zap.Logger) *DepartmentService {
	return &DepartmentService{store: store, log: log}
}

func (s *DepartmentService) Create(ctx context.Context, name, description string) (*models.Department, error) {
	d, err := newDepartment(name, description)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateDepartment(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("department created", zap.Int64("department_id", d.ID), zap.String("name", d.Name))
	return d, nil
}

func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	return s.store.ListDepartments(ctx)
}

func (s *DepartmentService) Get(ctx context.Context, id int64) (*models.Department, error) {
	return s.store.GetDepartment(ctx, id)
}

func (s *DepartmentService) Update(ctx context.Context, id int64, name, description string) (*models.Department, error) {
	d, err := newDepartment(name, description)
	if err != nil {
		return nil, err
	}
	d.ID = id
	if err := s.store.UpdateDepartment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	s.log.Info("department deleted", zap.Int64("department_id", id))
	return nil
}

func newDepartment(name, description string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("department name must not be blank")
	}
	if err := checkLength("department name", name, 120); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if err := checkLength("department description", description, 512); err != nil {
		return nil, err
	}
	return &models.Department{Name: name, Description: description}, nil
}

// checkLength rejects values longer than their column, counted in characters.
func checkLength(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return apperr.Invalid("%s must be at most %d characters", field, max)
	}
	return nil
}
