package repository

import (
	"context"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type productRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

func NewProductRepository(c ConvexCaller, logger logger.Logger) domain.ProductRepository {
	return &productRepository{convex: c, logger: logger}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	products, err := queryList[domain.Product](ctx, r.convex, fnProductsList, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to list products")
		return nil, err
	}
	return products, nil
}

type discountRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

func NewDiscountRepository(c ConvexCaller, logger logger.Logger) domain.DiscountRepository {
	return &discountRepository{convex: c, logger: logger}
}

func (r *discountRepository) List(ctx context.Context) ([]domain.DiscountCode, error) {
	codes, err := queryList[domain.DiscountCode](ctx, r.convex, fnDiscountsList, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to list discount codes")
		return nil, err
	}
	return codes, nil
}

type audienceRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

// NewAudienceRepository reads newsletter subscribers and contact form
// submissions.
func NewAudienceRepository(c ConvexCaller, logger logger.Logger) domain.AudienceRepository {
	return &audienceRepository{convex: c, logger: logger}
}

func (r *audienceRepository) ListSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	subs, err := queryList[domain.NewsletterSubscriber](ctx, r.convex, fnSubscribersList, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to list newsletter subscribers")
		return nil, err
	}
	return subs, nil
}

func (r *audienceRepository) ListContactSubmissions(ctx context.Context) ([]domain.ContactSubmission, error) {
	subs, err := queryList[domain.ContactSubmission](ctx, r.convex, fnContactSubmissions, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to list contact submissions")
		return nil, err
	}
	return subs, nil
}
