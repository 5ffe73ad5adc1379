package service

import (
	"context"
	"encoding/json"

	"maliyet-backend/internal/model"
	"maliyet-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	Record(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details interface{})
	RecordStatus(ctx context.Context, userID *uuid.UUID, action, entityID, entityName, status string, details interface{})
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *logrus.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, log *logrus.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

// Record writes one audit entry. Audit failures are logged, never surfaced:
// an unwritable trail must not fail the action it describes.
func (s *auditService) Record(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details interface{}) {
	s.RecordStatus(ctx, userID, action, entityID, entityName, "ok", details)
}

func (s *auditService) RecordStatus(ctx context.Context, userID *uuid.UUID, action, entityID, entityName, status string, details interface{}) {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
		Status:     status,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("failed to write audit log")
	}
}

// GetAuditLogs retrieves strictly paginated records with Users pre-loaded
func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		item := AuditLogResponse{
			ID:         l.ID.String(),
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			Status:     l.Status,
			CreatedAt:  l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if l.UserID != nil {
			item.UserID = l.UserID.String()
		}
		if l.User != nil {
			item.Username = l.User.Username
		}
		res = append(res, item)
	}
	return res, total, nil
}
