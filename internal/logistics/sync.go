// Package logistics keeps the services and moving-orders collections of an
// order mutually consistent. Transport line items (GAZELLE_FROM, GAZELLE_TO)
// are derived from moving orders: Sync must run after every mutation to
// either collection, consistency is not maintained automatically in between.
package logistics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/storebox-portal/internal/model"
)

// Sync reconciles transport services against moving orders: a pending pickup
// requires exactly one GAZELLE_FROM entry with count=1, a pending return
// exactly one GAZELLE_TO entry with count=1, and stray transport entries are
// dropped. All other services pass through unchanged, in order. Sync is
// idempotent.
func Sync(moving []model.MovingOrder, services []model.Service) []model.Service {
	needFrom := hasStatus(moving, model.MovingStatusPendingFrom)
	needTo := hasStatus(moving, model.MovingStatusPendingTo)

	result := make([]model.Service, 0, len(services)+2)
	haveFrom := false
	haveTo := false
	for _, svc := range services {
		switch svc.Type {
		case model.ServiceTypeGazelleFrom:
			if !needFrom || haveFrom {
				continue
			}
			haveFrom = true
			result = append(result, normalizeTransport(svc))
		case model.ServiceTypeGazelleTo:
			if !needTo || haveTo {
				continue
			}
			haveTo = true
			result = append(result, normalizeTransport(svc))
		default:
			result = append(result, svc)
		}
	}

	if needFrom && !haveFrom {
		result = append(result, newTransport(model.ServiceTypeGazelleFrom))
	}
	if needTo && !haveTo {
		result = append(result, newTransport(model.ServiceTypeGazelleTo))
	}
	return result
}

func normalizeTransport(svc model.Service) model.Service {
	svc.Count = 1
	svc.TotalPrice = svc.Price
	return svc
}

func newTransport(t model.ServiceType) model.Service {
	return model.Service{
		ID:    uuid.New(),
		Type:  t,
		Count: 1,
	}
}

// AddDelivery enables return delivery on the order: it appends a GAZELLE_TO
// service and synthesizes the companion pending-return moving order with the
// default date and a blank address the customer must fill in. A no-op when a
// pending return already exists.
func AddDelivery(o model.Order) model.Order {
	if o.HasMovingWithStatus(model.MovingStatusPendingTo) {
		o.Services = Sync(o.MovingOrders, o.Services)
		return o
	}
	o.MovingOrders = append(o.MovingOrders, model.MovingOrder{
		ID:         uuid.New(),
		OrderID:    o.ID,
		Status:     model.MovingStatusPendingTo,
		Direction:  model.DirectionToClient,
		MovingDate: DefaultReturnDate(o),
	})
	o.Services = Sync(o.MovingOrders, o.Services)
	return o
}

// RemoveDelivery drops the pending return and lets Sync strip its service.
func RemoveDelivery(o model.Order) model.Order {
	kept := make([]model.MovingOrder, 0, len(o.MovingOrders))
	for _, m := range o.MovingOrders {
		if m.Status == model.MovingStatusPendingTo {
			continue
		}
		kept = append(kept, m)
	}
	o.MovingOrders = kept
	o.Services = Sync(o.MovingOrders, o.Services)
	return o
}

// DefaultReturnDate is the scheduled end of the rental: start date plus the
// rented duration in months.
func DefaultReturnDate(o model.Order) time.Time {
	return o.StartDate.AddDate(0, o.Months, 0)
}

// MergeServiceEdits applies client edits on top of the current services while
// protecting derived fields: for transport entries the stored id and count
// win, only tariff-driven price updates pass through. Non-transport entries
// are replaced by their edited versions; new entries are appended. A newly
// added GAZELLE_TO is kept (normalized to count=1) so the caller can
// synthesize its pending-return moving order; a new GAZELLE_FROM is dropped,
// pickups only appear via their moving order.
func MergeServiceEdits(current, edits []model.Service) []model.Service {
	byID := make(map[uuid.UUID]model.Service, len(current))
	for _, svc := range current {
		byID[svc.ID] = svc
	}

	result := make([]model.Service, 0, len(edits))
	for _, edit := range edits {
		stored, known := byID[edit.ID]
		if known && stored.Type.IsTransport() {
			stored.Price = edit.Price
			stored.TotalPrice = stored.Price
			result = append(result, stored)
			continue
		}
		if !known && edit.Type.IsTransport() {
			if edit.Type == model.ServiceTypeGazelleFrom {
				continue
			}
			if edit.ID == uuid.Nil {
				edit.ID = uuid.New()
			}
			result = append(result, normalizeTransport(edit))
			continue
		}
		edit.TotalPrice = edit.Price * float64(edit.Count)
		result = append(result, edit)
	}
	return result
}

// EnsureReturnMoving synthesizes the pending-return moving order when the
// edited services carry a return delivery the moving orders do not cover yet:
// default date, blank address the customer must fill in.
func EnsureReturnMoving(o model.Order, moving []model.MovingOrder, services []model.Service) []model.MovingOrder {
	needTo := false
	for _, svc := range services {
		if svc.Type == model.ServiceTypeGazelleTo {
			needTo = true
			break
		}
	}
	if !needTo || hasStatus(moving, model.MovingStatusPendingTo) {
		return moving
	}
	return append(moving, model.MovingOrder{
		ID:         uuid.New(),
		OrderID:    o.ID,
		Status:     model.MovingStatusPendingTo,
		Direction:  model.DirectionToClient,
		MovingDate: DefaultReturnDate(o),
	})
}

// ApplyTariffs fills prices from the provider price list for services that do
// not carry one yet.
func ApplyTariffs(services []model.Service, tariffs []model.Tariff) []model.Service {
	prices := make(map[model.ServiceType]float64, len(tariffs))
	for _, t := range tariffs {
		prices[t.Type] = t.Price
	}
	result := make([]model.Service, len(services))
	for i, svc := range services {
		if svc.Price == 0 {
			svc.Price = prices[svc.Type]
		}
		svc.TotalPrice = svc.Price * float64(svc.Count)
		result[i] = svc
	}
	return result
}

// CheckInvariants runs the pre-submit consistency rules: a return delivery
// must have a pending-return moving order with a filled address, and when
// moving is selected every moving order needs an address.
func CheckInvariants(o model.Order) error {
	if o.HasService(model.ServiceTypeGazelleTo) {
		found := false
		for _, m := range o.MovingOrders {
			if m.Status == model.MovingStatusPendingTo && strings.TrimSpace(m.Address) != "" {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: specify delivery address", model.ErrValidation)
		}
	}

	if o.IsSelectedMoving || len(o.MovingOrders) > 0 {
		for i, m := range o.MovingOrders {
			if strings.TrimSpace(m.Address) == "" {
				return fmt.Errorf("%w: moving order %d: specify address", model.ErrValidation, i+1)
			}
		}
	}
	return nil
}

// Consistent reports whether transport services and moving orders already
// satisfy the bijection Sync enforces.
func Consistent(moving []model.MovingOrder, services []model.Service) bool {
	needFrom := hasStatus(moving, model.MovingStatusPendingFrom)
	needTo := hasStatus(moving, model.MovingStatusPendingTo)
	from, to := 0, 0
	for _, svc := range services {
		switch svc.Type {
		case model.ServiceTypeGazelleFrom:
			if svc.Count != 1 {
				return false
			}
			from++
		case model.ServiceTypeGazelleTo:
			if svc.Count != 1 {
				return false
			}
			to++
		}
	}
	return boolToCount(needFrom) == from && boolToCount(needTo) == to
}

func hasStatus(moving []model.MovingOrder, s model.MovingStatus) bool {
	for _, m := range moving {
		if m.Status == s {
			return true
		}
	}
	return false
}

func boolToCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
