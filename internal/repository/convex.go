package repository

import (
	"context"
	"fmt"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/convex"
)

// ConvexCaller is the subset of the Convex client the repositories use.
type ConvexCaller interface {
	Query(ctx context.Context, path string, args interface{}) (convex.Value, error)
	Mutation(ctx context.Context, path string, args interface{}) (convex.Value, error)
	Action(ctx context.Context, path string, args interface{}) (convex.Value, error)
}

// Convex function paths.
const (
	fnOrdersList         = "orders:list"
	fnOrdersGetByNumber  = "orders:getByOrderNumber"
	fnOrdersStats        = "orders:getStats"
	fnOrdersUpdateStatus = "orders:updateStatus"
	fnCommissionsList    = "commissions:list"
	fnCommissionsGet     = "commissions:get"
	fnCommissionsApprove = "commissions:approveEligible"
	fnPartnersList       = "partnerStores:list"
	fnPartnersGet        = "partnerStores:get"
	fnInquiriesList      = "serviceInquiries:list"
	fnInquiriesGet       = "serviceInquiries:get"
	fnInquiriesStatus    = "serviceInquiries:updateStatus"
	fnInquiriesQuote     = "serviceInquiries:sendQuote"
	fnInquiriesNotes     = "serviceInquiries:addNotes"
	fnProductsList       = "products:list"
	fnDiscountsList      = "discountCodes:list"
	fnSubscribersList    = "newsletter:listSubscribers"
	fnContactSubmissions = "contact:listSubmissions"
)

// queryList runs a list query. A null value is an empty list.
func queryList[T any](ctx context.Context, c ConvexCaller, path string, args interface{}) ([]T, error) {
	v, err := c.Query(ctx, path, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := []T{}
	if err := v.Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// queryOne runs a lookup query. A null value is reported as
// domain.ErrNotFound.
func queryOne[T any](ctx context.Context, c ConvexCaller, path string, args interface{}, entity, id string) (*T, error) {
	v, err := c.Query(ctx, path, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if v.IsNull() {
		return nil, &domain.ErrNotFound{Entity: entity, ID: id}
	}
	var out T
	if err := v.Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &out, nil
}

func mutate(ctx context.Context, c ConvexCaller, path string, args interface{}) (convex.Value, error) {
	v, err := c.Mutation(ctx, path, args)
	if err != nil {
		return convex.Value{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
