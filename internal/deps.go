package internal

import (
	"soulfamily/sounds-api/internal/service"
	"soulfamily/sounds-api/pkg/security"
	"soulfamily/sounds-api/storage"

	"gorm.io/gorm"
)

type Deps struct {
	DB     *gorm.DB
	Argon  *security.Argon
	Issuer *security.TokenIssuer
	S3     *storage.S3

	Uploader    *service.Uploader
	Accounts    *service.AccountService
	Onboarding  *service.OnboardingService
	Submissions *service.SubmissionService
	Review      *service.ReviewService
	Library     *service.LibraryService
	Taxonomy    *service.TaxonomyService
	Plans       *service.PlanService

	// SecureCookies marks the auth cookie Secure, set when TLS terminates
	// in front of the API
	SecureCookies bool
}
