package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type inquiryRepository struct {
	convex ConvexCaller
	logger logger.Logger
}

func NewInquiryRepository(c ConvexCaller, logger logger.Logger) domain.InquiryRepository {
	return &inquiryRepository{convex: c, logger: logger}
}

func (r *inquiryRepository) List(ctx context.Context) ([]domain.ServiceInquiry, error) {
	inquiries, err := queryList[domain.ServiceInquiry](ctx, r.convex, fnInquiriesList, nil)
	if err != nil {
		r.logger.WithField("error", err.Error()).Warn("Failed to list service inquiries")
		return nil, err
	}
	return inquiries, nil
}

func (r *inquiryRepository) Get(ctx context.Context, id string) (*domain.ServiceInquiry, error) {
	return queryOne[domain.ServiceInquiry](ctx, r.convex, fnInquiriesGet,
		map[string]interface{}{"id": id}, "inquiry", id)
}

func (r *inquiryRepository) UpdateStatus(ctx context.Context, id string, status domain.InquiryStatus) error {
	if !status.Valid() {
		return domain.NewValidationError(fmt.Sprintf("invalid inquiry status: %s", status))
	}
	return r.mutate(ctx, fnInquiriesStatus, id, map[string]interface{}{
		"id":     id,
		"status": string(status),
	})
}

func (r *inquiryRepository) SendQuote(ctx context.Context, id string, amount domain.Cents) error {
	if amount <= 0 {
		return domain.NewValidationError("quote amount must be positive")
	}
	return r.mutate(ctx, fnInquiriesQuote, id, map[string]interface{}{
		"id":           id,
		"quotedAmount": int64(amount),
	})
}

func (r *inquiryRepository) AddNotes(ctx context.Context, id string, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return domain.NewValidationError("notes are required")
	}
	return r.mutate(ctx, fnInquiriesNotes, id, map[string]interface{}{
		"id":    id,
		"notes": notes,
	})
}

func (r *inquiryRepository) mutate(ctx context.Context, path, id string, args map[string]interface{}) error {
	if id == "" {
		return domain.NewValidationError("inquiry id is required")
	}
	if _, err := mutate(ctx, r.convex, path, args); err != nil {
		r.logger.WithFields(map[string]interface{}{
			"inquiry_id": id,
			"function":   path,
			"error":      err.Error(),
		}).Error("Inquiry mutation failed")
		return err
	}
	return nil
}
