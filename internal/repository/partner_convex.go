package repository

import (
	"context"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type partnerRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

func NewPartnerRepository(c ConvexCaller, logger logger.Logger) domain.PartnerRepository {
	return &partnerRepository{convex: c, logger: logger}
}

func (r *partnerRepository) List(ctx context.Context) ([]domain.PartnerStore, error) {
	partners, err := queryList[domain.PartnerStore](ctx, r.convex, fnPartnersList, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Warn("Failed to list partner stores")
		return nil, err
	}
	return partners, nil
}

func (r *partnerRepository) Get(ctx context.Context, id string) (*domain.PartnerStore, error) {
	return queryOne[domain.PartnerStore](ctx, r.convex, fnPartnersGet,
		map[string]interface{}{"id": id}, "partner store", id)
}
