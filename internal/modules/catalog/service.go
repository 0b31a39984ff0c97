// Package catalog administers bookable resources and their blackout windows.
package catalog

import (
	"context"
	"errors"
	"strings"

	"facilityhub/internal/domain"
	"facilityhub/internal/pkg/validator"
	"facilityhub/internal/repository"
)

type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) error
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Resource, error)
	Update(ctx context.Context, res *domain.Resource) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type BlackoutRepository interface {
	CreateGuarded(ctx context.Context, w *domain.BlackoutWindow) ([]domain.BookingRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.BlackoutWindow, error)
	ListByResource(ctx context.Context, resourceID int64) ([]domain.BlackoutWindow, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	resources ResourceRepository
	blackouts BlackoutRepository
}

func NewService(resources ResourceRepository, blackouts BlackoutRepository) *Service {
	return &Service{resources: resources, blackouts: blackouts}
}

/* ---------- RESOURCES ---------- */

func (s *Service) CreateResource(ctx context.Context, req CreateResourceRequest) (*domain.Resource, error) {
	res := &domain.Resource{
		Name:        strings.TrimSpace(req.Name),
		Category:    domain.ResourceCategory(req.Category),
		Description: req.Description,
		Location:    req.Location,
		Capacity:    req.Capacity,
		HourlyRate:  req.HourlyRate,
		IsActive:    true,
	}
	if errs := validator.Validate(res); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *Service) ListResources(ctx context.Context, activeOnly bool) ([]domain.Resource, error) {
	return s.resources.List(ctx, activeOnly)
}

func (s *Service) UpdateResource(ctx context.Context, id int64, req UpdateResourceRequest) (*domain.Resource, error) {
	res, err := s.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		res.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		res.Category = domain.ResourceCategory(*req.Category)
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.Location != nil {
		res.Location = *req.Location
	}
	if req.Capacity != nil {
		res.Capacity = *req.Capacity
	}
	if req.HourlyRate != nil {
		res.HourlyRate = *req.HourlyRate
	}

	if errs := validator.Validate(res); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	if err := s.resources.Update(ctx, res); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return s.GetResource(ctx, id)
}

// SetResourceActive toggles whether new bookings are accepted. Existing
// bookings are left as they are.
func (s *Service) SetResourceActive(ctx context.Context, id int64, active bool) (*domain.Resource, error) {
	if err := s.resources.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return s.GetResource(ctx, id)
}

/* ---------- BLACKOUTS ---------- */

// CreateBlackout rejects windows that would cover active bookings and
// returns those bookings in a *BlackoutConflictError.
func (s *Service) CreateBlackout(ctx context.Context, actor domain.Actor, resourceID int64, req CreateBlackoutRequest) (*domain.BlackoutWindow, error) {
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return nil, fieldError("start_date", "date")
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		return nil, fieldError("end_date", "date")
	}

	w := &domain.BlackoutWindow{
		ResourceID: resourceID,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(req.Reason),
		Category:   domain.BlackoutCategory(strings.ToUpper(req.Category)),
		CreatedBy:  actor.UserID,
	}
	if errs := validator.Validate(w); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	if !w.ValidRange() {
		return nil, fieldError("end_date", "gtefield=start_date")
	}

	if _, err := s.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}

	conflicts, err := s.blackouts.CreateGuarded(ctx, w)
	if err != nil {
		if errors.Is(err, repository.ErrBookingsInWindow) {
			return nil, &BlackoutConflictError{Bookings: conflicts}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *Service) ListBlackouts(ctx context.Context, resourceID int64) ([]domain.BlackoutWindow, error) {
	if _, err := s.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.blackouts.ListByResource(ctx, resourceID)
}

func (s *Service) DeleteBlackout(ctx context.Context, id int64) error {
	if err := s.blackouts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBlackoutNotFound
		}
		return err
	}
	return nil
}
