package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"

	"github.com/google/uuid"
)

var ErrApprovalNotPending = errors.New("approval request is not pending")

type ReviewApprovalRequest struct {
	Approve    bool   `json:"approve"`
	ReviewNote string `json:"review_note"`
}

type ApprovalService interface {
	ListApprovals(ctx context.Context, status string, page, limit int) ([]model.ApprovalRequest, int64, error)
	ReviewApproval(ctx context.Context, actor Actor, id uuid.UUID, req ReviewApprovalRequest) (*model.ApprovalRequest, error)
}

type approvalService struct {
	approvals repository.ApprovalRepository
	audit     AuditService
	hub       EventPublisher
}

func NewApprovalService(approvals repository.ApprovalRepository, audit AuditService, hub EventPublisher) ApprovalService {
	return &approvalService{approvals: approvals, audit: audit, hub: hub}
}

func (s *approvalService) ListApprovals(ctx context.Context, status string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	return s.approvals.List(ctx, strings.ToLower(strings.TrimSpace(status)), page, limit)
}

// ReviewApproval resolves a pending request to approved or rejected. Only
// pending requests can be reviewed; the decision is final.
func (s *approvalService) ReviewApproval(ctx context.Context, actor Actor, id uuid.UUID, req ReviewApprovalRequest) (*model.ApprovalRequest, error) {
	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval.Status != model.ApprovalPending {
		return nil, ErrApprovalNotPending
	}

	status := model.ApprovalRejected
	action := model.ActionApprovalRejected
	if req.Approve {
		status = model.ApprovalApproved
		action = model.ActionApprovalApproved
	}

	now := time.Now()
	approval.Status = status
	approval.ReviewedBy = &actor.ID
	approval.ReviewedUsername = actor.Username
	approval.ReviewNote = strings.TrimSpace(req.ReviewNote)
	approval.ReviewedAt = &now
	if err := s.approvals.Update(ctx, approval); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, action, approval.ID.String(), approval.Target, map[string]interface{}{
		"request_type": approval.RequestType,
		"target":       approval.Target,
	})
	if s.hub != nil {
		event, err := json.Marshal(map[string]interface{}{
			"type": "approval." + status,
			"data": map[string]interface{}{
				"approval_id": approval.ID,
				"target":      approval.Target,
			},
		})
		if err == nil {
			s.hub.Publish(event)
		}
	}
	return approval, nil
}
