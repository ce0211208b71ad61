package repository

import (
	"context"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type commissionRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

// NewCommissionRepository creates a commission repository backed by Convex
func NewCommissionRepository(c ConvexCaller, logger logger.Logger) domain.CommissionRepository {
	return &commissionRepository{convex: c, logger: logger}
}

// List returns every commission, or only the partner's when partnerStoreID
// is set.
func (r *commissionRepository) List(ctx context.Context, partnerStoreID string) ([]domain.Commission, error) {
	args := map[string]interface{}{}
	if partnerStoreID != "" {
		args["partnerStoreId"] = partnerStoreID
	}
	commissions, err := queryList[domain.Commission](ctx, r.convex, fnCommissionsList, args)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to list commissions")
		return nil, err
	}
	return commissions, nil
}

func (r *commissionRepository) Get(ctx context.Context, id string) (*domain.Commission, error) {
	return queryOne[domain.Commission](ctx, r.convex, fnCommissionsGet,
		map[string]interface{}{"id": id}, "commission", id)
}

func (r *commissionRepository) ApproveEligible(ctx context.Context, partnerStoreID string) (int, error) {
	if partnerStoreID == "" {
		return 0, domain.NewValidationError("partner store id is required")
	}
	v, err := mutate(ctx, r.convex, fnCommissionsApprove, map[string]interface{}{
		"partnerStoreId": partnerStoreID,
	})
	if err != nil {
		r.logger.WithFields(map[string]interface{}{
			"partner_store_id": partnerStoreID,
			"error":            err.Error(),
		}).Error("Failed to approve eligible commissions")
		return 0, err
	}

	var result struct {
		Approved int `json:"approved"`
	}
	if err := v.Decode(&result); err != nil {
		return 0, err
	}

	r.logger.WithFields(map[string]interface{}{
		"partner_store_id": partnerStoreID,
		"approved":         result.Approved,
	}).Info("Approved eligible commissions")
	return result.Approved, nil
}
