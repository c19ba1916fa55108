package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/security"
	"soulfamily/sounds-api/pkg/util"
	"soulfamily/sounds-api/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minBioWords    = 100
	contractPrefix = "contracts"
)

// OnboardingService moves supplier applications from Applied to a signed
// contract
type OnboardingService struct {
	db       *gorm.DB
	argon    *security.Argon
	uploader *Uploader
	notifier Notifier
}

func NewOnboardingService(db *gorm.DB, argon *security.Argon, uploader *Uploader, notifier Notifier) *OnboardingService {
	return &OnboardingService{
		db:       db,
		argon:    argon,
		uploader: uploader,
		notifier: notifier,
	}
}

type ApplyInput struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"complete_residence_address"`
	City      string `json:"major_city"`
	Country   string `json:"country_or_state"`
	Bio       string `json:"bio"`
	Worked    *bool  `json:"worked"`
	Released  *bool  `json:"released"`
	Talent    string `json:"talent"`
	DAW       string `json:"daw"`
}

type ContractInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	Contract        Upload
}

// artistUsername turns an artist name into the supplier's username
func artistUsername(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func (in *ApplyInput) validate() error {
	if err := validators.Email(in.Email); err != nil {
		return badRequest("email is required.")
	}

	required := []struct {
		value string
		name  string
	}{
		{in.Name, "name"},
		{in.FirstName, "first_name"},
		{in.City, "major_city"},
		{in.Country, "country_or_state"},
		{in.LastName, "last_name"},
		{in.Bio, "bio"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return badRequest("%s is required.", r.name)
		}
	}

	if len(strings.Fields(in.Bio)) < minBioWords {
		return badRequest("bio should have minimum of %d words.", minBioWords)
	}

	if strings.TrimSpace(in.Address) == "" {
		return badRequest("complete_residence_address is required.")
	}

	if in.Worked == nil {
		return badRequest("worked should be a boolean.")
	}
	if in.Released == nil {
		return badRequest("released should be a boolean.")
	}

	if strings.TrimSpace(in.Talent) == "" {
		return badRequest("'%s' is invalid talent.", in.Talent)
	}
	if strings.TrimSpace(in.DAW) == "" {
		return badRequest("'%s' is invalid daw.", in.DAW)
	}

	return nil
}

// Apply creates a supplier account without a password together with its
// onboarding request. The password is set when the contract is signed.
func (s *OnboardingService) Apply(ctx context.Context, in ApplyInput) (*model.SupplierRequest, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := in.validate(); err != nil {
		return nil, err
	}

	username := artistUsername(in.Name)
	if err := validators.Username(username); err != nil {
		return nil, badRequest("%s", err)
	}

	db := s.db.WithContext(ctx)

	var n int64
	if err := db.Unscoped().Model(&model.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, badRequest("supplier with this email already exists")
	}

	if err := db.Unscoped().Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, badRequest("supplier with this artist name already exists")
	}

	userID := util.RandStr(userIDSize)
	req := model.SupplierRequest{
		SupplierID: userID,
		Status:     workflow.RequestApplied,
		Supplier: model.User{
			ID:       userID,
			Email:    in.Email,
			Username: username,
			Name:     in.Name,
			Role:     model.RoleSupplier,
			Supplier: &model.SupplierProfile{
				UserID:     userID,
				FirstName:  in.FirstName,
				LastName:   in.LastName,
				ArtistName: in.Name,
				Address:    in.Address,
				City:       in.City,
				Country:    in.Country,
				Bio:        in.Bio,
				Talent:     in.Talent,
				DAW:        in.DAW,
				Worked:     *in.Worked,
				Released:   *in.Released,
			},
		},
	}

	if err := db.Create(&req).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier request, %w", err)
	}

	zap.L().Info("Supplier applied", zap.String("userID", userID))

	return &req, nil
}

// Requests lists onboarding requests in status filtered by the hidden flag
func (s *OnboardingService) Requests(ctx context.Context, status, hidden string) ([]model.SupplierRequest, error) {
	hide, err := strconv.ParseBool(hidden)
	if err != nil {
		return nil, badRequest("hidden should be a boolean")
	}

	valid := false
	for _, st := range workflow.RequestStatuses {
		if string(st) == status {
			valid = true
			break
		}
	}
	if !valid {
		return nil, badRequest("Invalid request status")
	}

	var out []model.SupplierRequest
	err = s.db.
		WithContext(ctx).
		Preload("Supplier").
		Preload("Supplier.Supplier").
		Where("status = ? AND hidden = ?", status, hide).
		Order("created_at DESC").
		Find(&out).
		Error

	return out, err
}

func (s *OnboardingService) request(db *gorm.DB, email string) (*model.SupplierRequest, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, badRequest("email is required.")
	}

	var req model.SupplierRequest
	err := db.
		Preload("Supplier").
		Preload("Supplier.Supplier").
		Joins("JOIN users ON users.id = supplier_requests.supplier_id").
		Where("users.email = ?", email).
		First(&req).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("request not found")
	}
	if err != nil {
		return nil, err
	}

	return &req, nil
}

func advanceRequest(tx *gorm.DB, req *model.SupplierRequest, ev workflow.RequestEvent, extra map[string]any) error {
	next, err := workflow.Request.Next(req.Status, ev)
	if err != nil {
		return err
	}

	updates := map[string]any{"status": next}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.
		Model(&model.SupplierRequest{}).
		Where("id = ? AND status = ?", req.ID, req.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("request changed while processing, please retry")
	}

	req.Status = next
	return nil
}

// ScheduleInterview sets or moves the interview date and mails the
// supplier
func (s *OnboardingService) ScheduleInterview(ctx context.Context, email string, date time.Time) (*model.SupplierRequest, error) {
	if date.IsZero() {
		return nil, badRequest("interview_date is required")
	}

	db := s.db.WithContext(ctx)

	req, err := s.request(db, email)
	if err != nil {
		return nil, err
	}

	if err := advanceRequest(db, req, workflow.RequestEventInterview, map[string]any{"interview_date": date}); err != nil {
		return nil, err
	}
	req.InterviewDate = &date

	subject, body := interviewMail(req.Supplier.Name, date.Format("January 2, 2006"))
	notify(s.notifier, req.Supplier.Email, subject, body)

	return req, nil
}

func (s *OnboardingService) decide(ctx context.Context, email string, ev workflow.RequestEvent) (*model.SupplierRequest, error) {
	db := s.db.WithContext(ctx)

	req, err := s.request(db, email)
	if err != nil {
		return nil, err
	}

	if err := advanceRequest(db, req, ev, nil); err != nil {
		return nil, err
	}

	subject, body := onboardingDecisionMail(req.Supplier.Name, req.Status == workflow.RequestApproved)
	notify(s.notifier, req.Supplier.Email, subject, body)

	return req, nil
}

func (s *OnboardingService) Approve(ctx context.Context, email string) (*model.SupplierRequest, error) {
	return s.decide(ctx, email, workflow.RequestEventApprove)
}

func (s *OnboardingService) Decline(ctx context.Context, email string) (*model.SupplierRequest, error) {
	return s.decide(ctx, email, workflow.RequestEventDecline)
}

// Hide toggles whether a request shows up in the default admin list
func (s *OnboardingService) Hide(ctx context.Context, email string, hide bool) error {
	db := s.db.WithContext(ctx)

	req, err := s.request(db, email)
	if err != nil {
		return err
	}

	return db.
		Model(&model.SupplierRequest{}).
		Where("id = ?", req.ID).
		Update("hidden", hide).
		Error
}

func (s *OnboardingService) contractRequest(db *gorm.DB, email, username string) (*model.SupplierRequest, error) {
	if strings.TrimSpace(username) == "" {
		return nil, badRequest("username is required.")
	}

	req, err := s.request(db, email)
	if err != nil {
		return nil, err
	}

	if req.Supplier.Username != username {
		return nil, notFound("request not found")
	}

	return req, nil
}

// RequestDetail looks an application up by the applicant's email and
// username
func (s *OnboardingService) RequestDetail(ctx context.Context, email, username string) (*model.SupplierRequest, error) {
	return s.contractRequest(s.db.WithContext(ctx), email, username)
}

// SignContract completes onboarding: the contract is stored, the
// supplier's password is set and the account becomes usable
func (s *OnboardingService) SignContract(ctx context.Context, in ContractInput) (*model.SupplierRequest, error) {
	db := s.db.WithContext(ctx)

	req, err := s.contractRequest(db, in.Email, in.Username)
	if err != nil {
		return nil, err
	}

	if err := validators.PasswordPair(in.Password, in.ConfirmPassword); err != nil {
		return nil, badRequest("%s", err)
	}

	if _, err := workflow.Request.Next(req.Status, workflow.RequestEventContract); err != nil {
		return nil, err
	}

	if req.Supplier.Supplier != nil && req.Supplier.Supplier.ContractKey != "" {
		return nil, badRequest("supplier already has contract")
	}

	if in.Contract.Empty() {
		return nil, badRequest("contract is required")
	}

	hash, err := s.argon.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	stored, err := s.uploader.Store(ctx, contractPrefix, validators.DocumentTypes, in.Contract)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := advanceRequest(tx, req, workflow.RequestEventContract, nil); err != nil {
			return err
		}

		err := tx.
			Model(&model.SupplierProfile{}).
			Where("user_id = ?", req.SupplierID).
			Update("contract_key", stored[0].ObjectKey).
			Error
		if err != nil {
			return err
		}

		return tx.
			Model(&model.User{}).
			Where("id = ?", req.SupplierID).
			Updates(map[string]any{
				"password_hash": hash,
				"verified":      true,
			}).
			Error
	})
	if err != nil {
		s.uploader.Discard(stored...)
		return nil, err
	}

	zap.L().Info("Supplier signed contract", zap.String("userID", req.SupplierID))

	return req, nil
}

// UpdateContract replaces the stored contract of a supplier who already
// finished onboarding
func (s *OnboardingService) UpdateContract(ctx context.Context, email, username string, contract Upload) (*model.SupplierRequest, error) {
	db := s.db.WithContext(ctx)

	req, err := s.contractRequest(db, email, username)
	if err != nil {
		return nil, err
	}

	if req.Status != workflow.RequestCompleted {
		return nil, badRequest("cannot sign contract")
	}

	if contract.Empty() {
		return nil, badRequest("contract is required")
	}

	stored, err := s.uploader.Store(ctx, contractPrefix, validators.DocumentTypes, contract)
	if err != nil {
		return nil, err
	}

	var old string
	if req.Supplier.Supplier != nil {
		old = req.Supplier.Supplier.ContractKey
	}

	err = db.
		Model(&model.SupplierProfile{}).
		Where("user_id = ?", req.SupplierID).
		Update("contract_key", stored[0].ObjectKey).
		Error
	if err != nil {
		s.uploader.Discard(stored...)
		return nil, err
	}

	if old != "" {
		if err := s.uploader.store.Delete(ctx, old); err != nil {
			zap.L().Warn("Failed to delete replaced contract", zap.String("key", old), zap.Error(err))
		}
	}

	return req, nil
}
