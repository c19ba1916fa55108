package service

import (
	"context"
	"strings"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService is the staff and admin side of the submission workflow
type ReviewService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewReviewService(db *gorm.DB, notifier Notifier) *ReviewService {
	return &ReviewService{
		db:       db,
		notifier: notifier,
	}
}

// claim makes p the approval person of an unassigned submission. Losing the
// race against another reviewer is a conflict.
func claim(tx *gorm.DB, sub *model.Submission, p security.Principal) error {
	if sub.ApprovalPersonID != nil {
		return nil
	}

	res := tx.
		Model(&model.Submission{}).
		Where("id = ? AND approval_person_id IS NULL", sub.ID).
		Update("approval_person_id", p.UserID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("submission was claimed by another reviewer")
	}

	zap.L().Info("Submission claimed", zap.Uint("submissionID", sub.ID), zap.String("userID", p.UserID))

	sub.ApprovalPersonID = &p.UserID
	return nil
}

// reviewable loads a submission a staff member may work on: one assigned to
// them or one nobody owns yet
func (s *ReviewService) reviewable(db *gorm.DB, p security.Principal, kind model.Kind, id uint) (*model.Submission, error) {
	if !p.Is(model.RoleStaff) {
		return nil, forbidden("only staff can review submissions")
	}

	sub, err := loadSubmission(db.Preload("Supplier"), kind, id)
	if err != nil {
		return nil, err
	}

	if sub.ApprovalPersonID != nil && *sub.ApprovalPersonID != p.UserID {
		return nil, notFound("%s not found!", kind)
	}

	return sub, nil
}

func (s *ReviewService) fileAction(ctx context.Context, p security.Principal, kind model.Kind, submissionID, fileID uint, ev workflow.SubmissionEvent, fev workflow.FileEvent, extra map[string]any) (*model.Submission, *model.AudioFile, error) {
	db := s.db.WithContext(ctx)

	sub, err := s.reviewable(db, p, kind, submissionID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := workflow.Submission.Next(sub.Status, ev); err != nil {
		return nil, nil, err
	}

	af, err := fileInContent(db, sub.ContentID, fileID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := workflow.File.Next(af.Status, fev); err != nil {
		return nil, nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := claim(tx, sub, p); err != nil {
			return err
		}

		if err := advanceSubmission(tx, sub, ev); err != nil {
			return err
		}

		return advanceFile(tx, af, fev, extra)
	})
	if err != nil {
		return nil, nil, err
	}

	zap.L().Info("File reviewed",
		zap.String("kind", string(kind)),
		zap.Uint("submissionID", sub.ID),
		zap.Uint("fileID", af.ID),
		zap.String("status", string(af.Status)),
	)

	return sub, af, nil
}

// ReviseFile sends a file back to the supplier with a message explaining
// what has to change
func (s *ReviewService) ReviseFile(ctx context.Context, p security.Principal, kind model.Kind, submissionID, fileID uint, message string) (*model.AudioFile, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, badRequest("message is required")
	}

	sub, af, err := s.fileAction(ctx, p, kind, submissionID, fileID, workflow.EventReviseFile, workflow.FileEventRevise, map[string]any{"message": message})
	if err != nil {
		return nil, err
	}
	af.Message = message

	if sub.Supplier != nil {
		name := ""
		if af.File != nil {
			name = af.File.Name
		}

		subject, body := revisionMail(sub.Content.Title, name, message)
		notify(s.notifier, sub.Supplier.Email, subject, body)
	}

	return af, nil
}

func (s *ReviewService) ApproveFile(ctx context.Context, p security.Principal, kind model.Kind, submissionID, fileID uint) (*model.AudioFile, error) {
	_, af, err := s.fileAction(ctx, p, kind, submissionID, fileID, workflow.EventApproveFile, workflow.FileEventApprove, nil)
	return af, err
}

func (s *ReviewService) RejectFile(ctx context.Context, p security.Principal, kind model.Kind, submissionID, fileID uint) (*model.AudioFile, error) {
	_, af, err := s.fileAction(ctx, p, kind, submissionID, fileID, workflow.EventRejectFile, workflow.FileEventReject, nil)
	return af, err
}

// SubmitForReview hands a submission over to the admins. There is no gate
// on how many files were reviewed.
func (s *ReviewService) SubmitForReview(ctx context.Context, p security.Principal, kind model.Kind, submissionID uint) (*model.Submission, error) {
	db := s.db.WithContext(ctx)

	sub, err := s.reviewable(db, p, kind, submissionID)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.Submission.Next(sub.Status, workflow.EventSubmitForReview); err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := claim(tx, sub, p); err != nil {
			return err
		}

		return advanceSubmission(tx, sub, workflow.EventSubmitForReview)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Submission submitted for review", zap.Uint("submissionID", sub.ID), zap.String("userID", p.UserID))

	return sub, nil
}

func (s *ReviewService) decide(ctx context.Context, p security.Principal, kind model.Kind, submissionID uint, ev workflow.SubmissionEvent) (*model.Submission, error) {
	if !p.Is(model.RoleAdmin) {
		return nil, forbidden("only admins can approve or reject content")
	}

	db := s.db.WithContext(ctx)

	sub, err := loadSubmission(db.Preload("Supplier"), kind, submissionID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return advanceSubmission(tx, sub, ev)
	})
	if err != nil {
		return nil, err
	}

	approved := sub.Status == workflow.SubmissionApproved

	zap.L().Info("Submission decided",
		zap.String("kind", string(kind)),
		zap.Uint("submissionID", sub.ID),
		zap.Bool("approved", approved),
	)

	if sub.Supplier != nil {
		subject, body := contentDecisionMail(sub.Content.Title, approved)
		notify(s.notifier, sub.Supplier.Email, subject, body)
	}

	return sub, nil
}

// Approve publishes a submitted item to the catalogue
func (s *ReviewService) Approve(ctx context.Context, p security.Principal, kind model.Kind, submissionID uint) (*model.Submission, error) {
	return s.decide(ctx, p, kind, submissionID, workflow.EventApprove)
}

func (s *ReviewService) Reject(ctx context.Context, p security.Principal, kind model.Kind, submissionID uint) (*model.Submission, error) {
	return s.decide(ctx, p, kind, submissionID, workflow.EventReject)
}
