// Package editor validates and assembles a full order edit (items, services,
// moving orders, rental duration) and issues the single update call.
package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/storebox-portal/internal/logistics"
	"github.com/nurpe/storebox-portal/internal/model"
)

// Draft is one edit session over an order snapshot. Local toggles are visible
// immediately within the session; cross-collection consistency holds only
// after Submit runs the synchronizer.
type Draft struct {
	Order           model.Order
	Items           []model.Item
	Services        []model.Service
	MovingOrders    []model.MovingOrder
	Months          int
	SelectedMoving  bool
	SelectedPackage bool
}

type UpdateInput struct {
	OrderID           uuid.UUID
	Items             []model.Item
	Services          []model.Service
	MovingOrders      []model.MovingOrder
	IsSelectedMoving  bool
	IsSelectedPackage bool
	Months            int
}

type Updater interface {
	UpdateOrderWithServices(ctx context.Context, in UpdateInput) error
}

type Editor struct {
	updater Updater
}

func New(updater Updater) *Editor {
	return &Editor{updater: updater}
}

// NormalizeItems recomputes item volumes from dimensions, two-decimal
// rounding.
func NormalizeItems(items []model.Item) []model.Item {
	result := make([]model.Item, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		item.Volume = item.ComputeVolume()
		result[i] = item
	}
	return result
}

// Validate runs the submission checks in their fixed order; the first failure
// wins.
func (e *Editor) Validate(d Draft) error {
	items := NormalizeItems(d.Items)
	hasItem := false
	for _, item := range items {
		if item.Name != "" && item.Volume > 0 {
			hasItem = true
			break
		}
	}
	if !hasItem {
		return fmt.Errorf("%w: add at least one item", model.ErrValidation)
	}

	snapshot := d.Order
	snapshot.Items = items
	snapshot.Services = d.Services
	snapshot.MovingOrders = d.MovingOrders
	snapshot.IsSelectedMoving = d.SelectedMoving
	if err := logistics.CheckInvariants(snapshot); err != nil {
		return err
	}

	if d.SelectedPackage {
		hasService := false
		for _, svc := range d.Services {
			if !svc.Type.IsTransport() && svc.Count > 0 {
				hasService = true
				break
			}
		}
		if !hasService {
			return fmt.Errorf("%w: select at least one package service", model.ErrValidation)
		}
	}
	return nil
}

// Submit validates the draft, runs the synchronizer one last time and issues
// the single update call with the assembled collections.
func (e *Editor) Submit(ctx context.Context, d Draft) error {
	if err := e.Validate(d); err != nil {
		return err
	}

	services := logistics.Sync(d.MovingOrders, d.Services)
	if !logistics.Consistent(d.MovingOrders, services) {
		return fmt.Errorf("%w: transport services do not match moving orders", model.ErrDesync)
	}

	selectedMoving := d.SelectedMoving || len(d.MovingOrders) > 0 || hasType(services, model.ServiceTypeGazelleTo)
	selectedPackage := d.SelectedPackage && len(services) > 0

	return e.updater.UpdateOrderWithServices(ctx, UpdateInput{
		OrderID:           d.Order.ID,
		Items:             NormalizeItems(d.Items),
		Services:          services,
		MovingOrders:      d.MovingOrders,
		IsSelectedMoving:  selectedMoving,
		IsSelectedPackage: selectedPackage,
		Months:            d.Months,
	})
}

func hasType(services []model.Service, t model.ServiceType) bool {
	for _, svc := range services {
		if svc.Type == t {
			return true
		}
	}
	return false
}
