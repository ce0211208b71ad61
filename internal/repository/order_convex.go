package repository

import (
	"context"
	"fmt"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type orderRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

// NewOrderRepository creates an order repository backed by Convex
func NewOrderRepository(c ConvexCaller, logger logger.Logger) domain.OrderRepository {
	return &orderRepository{convex: c, logger: logger}
}

func (r *orderRepository) List(ctx context.Context, limit int) ([]domain.Order, error) {
	args := map[string]interface{}{}
	if limit > 0 {
		args["limit"] = limit
	}
	orders, err := queryList[domain.Order](ctx, r.convex, fnOrdersList, args)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to list orders")
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Get(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return queryOne[domain.Order](ctx, r.convex, fnOrdersGetByNumber,
		map[string]interface{}{"orderNumber": orderNumber}, "order", orderNumber)
}

func (r *orderRepository) GetStats(ctx context.Context) (*domain.OrderStats, error) {
	v, err := r.convex.Query(ctx, fnOrdersStats, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to get order stats")
		return nil, fmt.Errorf("%s: %w", fnOrdersStats, err)
	}
	var stats domain.OrderStats
	if err := v.Decode(&stats); err != nil {
		return nil, fmt.Errorf("%s: %w", fnOrdersStats, err)
	}
	return &stats, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if orderID == "" {
		return domain.NewValidationError("order id is required")
	}
	if !status.Valid() {
		return domain.NewValidationError(fmt.Sprintf("invalid order status: %s", status))
	}
	_, err := mutate(ctx, r.convex, fnOrdersUpdateStatus, map[string]interface{}{
		"orderId": orderID,
		"status":  string(status),
	})
	if err != nil {
		r.logger.WithFields(map[string]interface{}{
			"order_id": orderID,
			"status":   string(status),
			"error":    err.Error(),
		}).Error("Failed to update order status")
		return err
	}
	return nil
}
