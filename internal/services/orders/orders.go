// Package orders implements order bookkeeping on behalf of a signed-in owner.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/findosh/ordertrack/internal/storage"
	"github.com/findosh/ordertrack/internal/validation"
)

// Errors returned by Service.
var (
	ErrNotAuthenticated = errors.New("no user is logged in")
	ErrOrderNotFound    = errors.New("order not found")
)

// Service combines validation, storage and ownership for orders
type Service struct {
	orderRepo *storage.OrderRepository
	log       zerolog.Logger
}

// NewService creates a new order service
func NewService(orderRepo *storage.OrderRepository, log zerolog.Logger) *Service {
	return &Service{
		orderRepo: orderRepo,
		log:       log.With().Str("component", "orders").Logger(),
	}
}

// CreateOrder validates in and stores a new order owned by ownerID.
// Nothing is written when validation fails.
func (s *Service) CreateOrder(ctx context.Context, ownerID uuid.UUID, in models.OrderInput) (*models.Order, error) {
	if ownerID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	total, err := validate(in)
	if err != nil {
		return nil, err
	}

	order := models.NewOrder(ownerID, in, total)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.log.Error().Err(err).Str("order_number", in.OrderNumber).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.log.Debug().Str("order_id", order.ID.String()).Msg("order created")
	return order, nil
}

// UpdateOrder validates in and overwrites every mutable field of the order,
// keeping its ID and owner.
func (s *Service) UpdateOrder(ctx context.Context, orderID uuid.UUID, in models.OrderInput) (*models.Order, error) {
	total, err := validate(in)
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Apply(in, total)
	if err := s.orderRepo.Update(ctx, order); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		s.log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.log.Debug().Str("order_id", orderID.String()).Msg("order updated")
	return order, nil
}

// DeleteOrder removes the order. Ownership is not re-checked here; callers
// only hold IDs obtained from ListOrders for the current owner.
func (s *Service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrOrderNotFound
		}
		s.log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.log.Debug().Str("order_id", orderID.String()).Msg("order deleted")
	return nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns every order owned by ownerID, earliest due date first
// and undated orders last. Results are read fresh from storage on every call.
func (s *Service) ListOrders(ctx context.Context, ownerID uuid.UUID) ([]*models.Order, error) {
	if ownerID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	orders, err := s.orderRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func validate(in models.OrderInput) (decimal.Decimal, error) {
	if err := validation.ValidateOrder(in); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(in.Total)
}
