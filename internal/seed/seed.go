// Package seed loads demo resources and blackout windows from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"facilityhub/internal/domain"
	"facilityhub/internal/modules/catalog"

	"gopkg.in/yaml.v3"
)

type Fixtures struct {
	Resources []ResourceFixture `yaml:"resources"`
}

type ResourceFixture struct {
	Name        string            `yaml:"name"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Location    string            `yaml:"location"`
	Capacity    int               `yaml:"capacity"`
	HourlyRate  float64           `yaml:"hourly_rate"`
	Inactive    bool              `yaml:"inactive"`
	Blackouts   []BlackoutFixture `yaml:"blackouts"`
}

type BlackoutFixture struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Reason    string `yaml:"reason"`
	Category  string `yaml:"category"`
}

type Summary struct {
	Resources int
	Skipped   int
	Blackouts int
}

// Catalog is the part of catalog.Service the seeder drives.
type Catalog interface {
	ListResources(ctx context.Context, activeOnly bool) ([]domain.Resource, error)
	CreateResource(ctx context.Context, req catalog.CreateResourceRequest) (*domain.Resource, error)
	SetResourceActive(ctx context.Context, id int64, active bool) (*domain.Resource, error)
	CreateBlackout(ctx context.Context, actor domain.Actor, resourceID int64, req catalog.CreateBlackoutRequest) (*domain.BlackoutWindow, error)
}

func LoadFile(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if len(f.Resources) == 0 {
		return nil, errors.New("fixtures contain no resources")
	}
	return &f, nil
}

// Apply creates every resource not already present by name, then its
// blackouts. Existing resources are left untouched so reruns are safe.
func Apply(ctx context.Context, svc Catalog, actor domain.Actor, f *Fixtures) (Summary, error) {
	var sum Summary

	existing, err := svc.ListResources(ctx, false)
	if err != nil {
		return sum, err
	}
	byName := make(map[string]bool, len(existing))
	for _, r := range existing {
		byName[r.Name] = true
	}

	for _, rf := range f.Resources {
		if byName[rf.Name] {
			log.Printf("seed_skip resource=%q reason=exists", rf.Name)
			sum.Skipped++
			continue
		}

		res, err := svc.CreateResource(ctx, catalog.CreateResourceRequest{
			Name:        rf.Name,
			Category:    rf.Category,
			Description: rf.Description,
			Location:    rf.Location,
			Capacity:    rf.Capacity,
			HourlyRate:  rf.HourlyRate,
		})
		if err != nil {
			return sum, fmt.Errorf("resource %q: %w", rf.Name, err)
		}
		byName[res.Name] = true
		sum.Resources++

		for _, bf := range rf.Blackouts {
			if _, err := svc.CreateBlackout(ctx, actor, res.ID, catalog.CreateBlackoutRequest{
				StartDate: bf.StartDate,
				EndDate:   bf.EndDate,
				Reason:    bf.Reason,
				Category:  bf.Category,
			}); err != nil {
				return sum, fmt.Errorf("resource %q blackout %s..%s: %w", rf.Name, bf.StartDate, bf.EndDate, err)
			}
			sum.Blackouts++
		}

		if rf.Inactive {
			if _, err := svc.SetResourceActive(ctx, res.ID, false); err != nil {
				return sum, fmt.Errorf("resource %q: %w", rf.Name, err)
			}
		}
	}
	return sum, nil
}
