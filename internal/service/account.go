package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
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
	verifyTTL        = 30 * time.Minute
	unverifiedMaxAge = 7 * 24 * time.Hour
	userIDSize       = 16
)

// AccountService handles signup, verification, login and staff accounts
type AccountService struct {
	db       *gorm.DB
	argon    *security.Argon
	issuer   *security.TokenIssuer
	notifier Notifier
	baseURL  string
}

func NewAccountService(db *gorm.DB, argon *security.Argon, issuer *security.TokenIssuer, notifier Notifier, baseURL string) *AccountService {
	return &AccountService{
		db:       db,
		argon:    argon,
		issuer:   issuer,
		notifier: notifier,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

type SignupInput struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Country         string `json:"country"`
	City            string `json:"city_or_state"`
}

type StaffInput struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// identityTaken reports which of email or username already belongs to
// someone as a client facing error
func identityTaken(db *gorm.DB, email, username string) error {
	var n int64

	if err := db.Unscoped().Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return badRequest("email already exists")
	}

	if err := db.Unscoped().Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return badRequest("username already exists")
	}

	return nil
}

func checkIdentity(email, username string) error {
	if err := validators.Email(email); err != nil {
		return badRequest("%s", err)
	}

	if err := validators.Username(username); err != nil {
		return badRequest("%s", err)
	}

	return nil
}

// generatedUsername derives a username for accounts created without one
func generatedUsername(role model.Role) string {
	return strings.ToLower(string(role)) + "_" + strings.ToLower(util.RandStr(8))
}

// SignupMember registers an unverified member and mails a verification
// link. Accounts that are not verified in time are purged by the
// scheduler.
func (s *AccountService) SignupMember(ctx context.Context, in SignupInput) (*model.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" {
		in.Username = generatedUsername(model.RoleMember)
	}

	if err := checkIdentity(in.Email, in.Username); err != nil {
		return nil, err
	}

	if err := validators.PasswordPair(in.Password, in.ConfirmPassword); err != nil {
		return nil, badRequest("%s", err)
	}

	db := s.db.WithContext(ctx)

	if err := identityTaken(db, in.Email, in.Username); err != nil {
		return nil, err
	}

	hash, err := s.argon.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID := util.RandStr(userIDSize)

	token, err := security.NewVerificationToken(userID, model.PurposeEmailVerify, verifyTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token, %w", err)
	}

	expiry := time.Now().Add(unverifiedMaxAge)
	user := model.User{
		ID:           userID,
		Email:        in.Email,
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         model.RoleMember,
		ExpiresAt:    &expiry,
		Member: &model.MemberProfile{
			UserID:  userID,
			Country: in.Country,
			City:    in.City,
		},
		VerificationTokens: []model.VerificationToken{*token},
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	link := fmt.Sprintf("%s/verify?user_id=%s&token=%s", s.baseURL, url.QueryEscape(userID), url.QueryEscape(token.Token))
	subject, body := verificationMail(link)
	notify(s.notifier, user.Email, subject, body)

	zap.L().Info("Member signed up", zap.String("userID", userID))

	return &user, nil
}

// Verify consumes an email verification token
func (s *AccountService) Verify(ctx context.Context, userID, token string) error {
	if token == "" {
		return badRequest("No verification token provided")
	}
	if userID == "" {
		return badRequest("No user ID provided")
	}

	db := s.db.WithContext(ctx)

	var record model.VerificationToken
	err := db.
		Where("user_id = ? AND token = ? AND purpose = ?", userID, token, model.PurposeEmailVerify).
		First(&record).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Token expired or invalid")
	}
	if err != nil {
		return err
	}

	if record.Used {
		return badRequest("Token was used already")
	}

	if record.ExpiresAt.Before(time.Now()) {
		return badRequest("Token expired")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&model.VerificationToken{}).
			Where("id = ? AND used = ?", record.ID, false).
			Updates(map[string]any{
				"used":    true,
				"used_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return badRequest("Token was used already")
		}

		return tx.
			Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"verified":   true,
				"expires_at": nil,
			}).
			Error
	})
}

// Login checks the credentials and issues a session token
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, badRequest("%s", validators.ErrEmailEmpty)
	}
	if password == "" {
		return nil, badRequest("%s", validators.ErrPasswordEmpty)
	}

	var user model.User
	err := s.db.
		WithContext(ctx).
		Where("email = ?", email).
		First(&user).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, unauthorized("Invalid credentials")
	}

	ok, err := s.argon.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}
	if !ok {
		return nil, unauthorized("Invalid credentials")
	}

	if !user.Verified {
		return nil, forbidden("Please verify your email before logging in")
	}

	token, exp, err := s.issuer.Issue(security.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token, %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: exp, User: &user}, nil
}

// CreateStaff adds a verified staff account. Only admins can do this.
func (s *AccountService) CreateStaff(ctx context.Context, p security.Principal, in StaffInput) (*model.User, error) {
	if !p.Is(model.RoleAdmin) {
		return nil, forbidden("only admins can create staff")
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := checkIdentity(in.Email, in.Username); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, badRequest("name is required.")
	}

	if err := validators.PasswordPair(in.Password, in.ConfirmPassword); err != nil {
		return nil, badRequest("%s", err)
	}

	db := s.db.WithContext(ctx)

	if err := identityTaken(db, in.Email, in.Username); err != nil {
		return nil, err
	}

	hash, err := s.argon.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	user := model.User{
		ID:           util.RandStr(userIDSize),
		Email:        in.Email,
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         model.RoleStaff,
		Verified:     true,
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create staff, %w", err)
	}

	zap.L().Info("Staff created", zap.String("userID", user.ID), zap.String("by", p.UserID))

	return &user, nil
}

func (s *AccountService) ListStaff(ctx context.Context) ([]model.User, error) {
	var out []model.User

	err := s.db.
		WithContext(ctx).
		Where("role = ?", model.RoleStaff).
		Order("created_at DESC").
		Find(&out).
		Error

	return out, err
}

// Me returns the caller with the profile matching their role
func (s *AccountService) Me(ctx context.Context, p security.Principal) (*model.User, error) {
	q := s.db.WithContext(ctx)

	switch p.Role {
	case model.RoleSupplier:
		q = q.Preload("Supplier")
	case model.RoleMember:
		q = q.Preload("Member")
	}

	return first[model.User](q, notFound("user not found"), "id = ?", p.UserID)
}

type MemberInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	ConfirmEmail    string `json:"confirm_email"`
	Country         string `json:"country"`
	City            string `json:"city_or_state"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func requireAdmin(p security.Principal) error {
	if !p.Is(model.RoleAdmin) {
		return forbidden("You do not have permission to perform this action.")
	}

	return nil
}

// CreateMember adds a verified member on behalf of an admin and mails them
// a welcome note
func (s *AccountService) CreateMember(ctx context.Context, p security.Principal, in MemberInput) (*model.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.ConfirmEmail = strings.TrimSpace(strings.ToLower(in.ConfirmEmail))

	if strings.TrimSpace(in.Username) == "" {
		return nil, badRequest("username is required.")
	}
	if err := checkIdentity(in.Email, in.Username); err != nil {
		return nil, err
	}
	if in.Email != in.ConfirmEmail {
		return nil, badRequest("email and confirm email does not match.")
	}
	if strings.TrimSpace(in.Country) == "" {
		return nil, badRequest("country is required.")
	}
	if strings.TrimSpace(in.City) == "" {
		return nil, badRequest("city_or_state is required.")
	}
	if err := validators.PasswordPair(in.Password, in.ConfirmPassword); err != nil {
		return nil, badRequest("%s", err)
	}

	db := s.db.WithContext(ctx)

	if err := identityTaken(db, in.Email, in.Username); err != nil {
		return nil, err
	}

	hash, err := s.argon.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID := util.RandStr(userIDSize)
	user := model.User{
		ID:           userID,
		Email:        in.Email,
		Username:     in.Username,
		Name:         "Member",
		PasswordHash: hash,
		Role:         model.RoleMember,
		Verified:     true,
		Member: &model.MemberProfile{
			UserID:  userID,
			Country: in.Country,
			City:    in.City,
		},
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create member, %w", err)
	}

	subject, body := welcomeMail(user.Username)
	notify(s.notifier, user.Email, subject, body)

	zap.L().Info("Member created", zap.String("userID", user.ID), zap.String("by", p.UserID))

	return &user, nil
}

func (s *AccountService) ListMembers(ctx context.Context) ([]model.User, error) {
	var out []model.User

	err := s.db.
		WithContext(ctx).
		Preload("Member").
		Where("role = ?", model.RoleMember).
		Order("created_at DESC").
		Find(&out).
		Error

	return out, err
}

func (s *AccountService) Member(ctx context.Context, id string) (*model.User, error) {
	return first[model.User](s.db.WithContext(ctx).Preload("Member"), notFound("member not found"), "id = ? AND role = ?", id, model.RoleMember)
}

func (s *AccountService) Staff(ctx context.Context, id string) (*model.User, error) {
	return first[model.User](s.db.WithContext(ctx), notFound("staff member not found"), "id = ? AND role = ?", id, model.RoleStaff)
}

// DeleteMember soft deletes a member. Their likes, downloads and collections
// stay so the counters keep matching the join rows.
func (s *AccountService) DeleteMember(ctx context.Context, p security.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}

	res := s.db.
		WithContext(ctx).
		Where("id = ? AND role = ?", id, model.RoleMember).
		Delete(&model.User{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete member, %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("member not found")
	}

	zap.L().Info("Member deleted", zap.String("userID", id), zap.String("by", p.UserID))

	return nil
}

// DeleteStaff soft deletes a staff account and hands the submissions they
// had not finished back to the pool, where the next reviewer to act claims
// them
func (s *AccountService) DeleteStaff(ctx context.Context, p security.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}

	var released int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("id = ? AND role = ?", id, model.RoleStaff).
			Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("staff member not found")
		}

		res = tx.
			Model(&model.Submission{}).
			Where("approval_person_id = ? AND status IN ?", id, []workflow.SubmissionStatus{workflow.SubmissionUploaded, workflow.SubmissionProcess}).
			Update("approval_person_id", nil)
		released = res.RowsAffected

		return res.Error
	})
	if err != nil {
		return err
	}

	zap.L().Info("Staff deleted", zap.String("userID", id), zap.String("by", p.UserID), zap.Int64("released", released))

	return nil
}
