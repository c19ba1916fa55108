// Package app wires the HTTP surface: middleware, route groups and the
// handler packages below it
package app

import (
	"context"
	"net/http"
	"time"

	"soulfamily/sounds-api/app/content"
	"soulfamily/sounds-api/app/library"
	"soulfamily/sounds-api/app/plan"
	"soulfamily/sounds-api/app/review"
	"soulfamily/sounds-api/app/root"
	"soulfamily/sounds-api/app/supplier"
	"soulfamily/sounds-api/app/taxonomy"
	"soulfamily/sounds-api/app/user"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	CORSOrigins  []string
	RateLimit    int
	MaxBodyBytes int64
	Captcha      middleware.CaptchaConfig
	Cache        persist.CacheStore
	CacheTTL     time.Duration
}

type kindHandler func(*gin.Context, *internal.Deps, model.Kind)

type planHandler func(*gin.Context, *internal.Deps, model.PlanType)

// NewRouter builds the engine. Background work started here (the rate
// limiter janitor) stops when ctx is cancelled.
func NewRouter(ctx context.Context, d *internal.Deps, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(
		ginzap.Ginzap(zap.L(), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L(), true),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.NewRequestIDMiddleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}

	if cfg.Cache == nil {
		cfg.Cache = persist.NewMemoryStore(time.Minute)
	}

	cacheFor := func(ttl time.Duration) gin.HandlerFunc {
		return cache.CacheByRequestURI(cfg.Cache, ttl)
	}

	jwt := middleware.NewJWTMiddleware(d.DB, d.Issuer)
	captcha := middleware.NewCaptchaMiddleware(cfg.Captcha)
	rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateLimit * 2,
	})

	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleStaff)
	supplierOnly := middleware.RequireRole(model.RoleSupplier)
	member := middleware.RequireRole(model.RoleMember)

	with := func(h func(*gin.Context, *internal.Deps)) gin.HandlerFunc {
		return func(c *gin.Context) { h(c, d) }
	}

	m := router.Group("/api", rateLimiter.Handler(), middleware.BodySizeLimiter(cfg.MaxBodyBytes))
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/health		-> Checks the database and the bucket
		m.GET("/health", with(root.Health))
	}

	a := m.Group("/auth")
	{
		// POST /api/auth/signup	-> Registers a member and mails a verification link
		a.POST("/signup", captcha, with(user.UserRegister))

		// POST /api/auth/verify	-> Verifies a new user
		a.POST("/verify", with(user.UserVerify))

		// POST /api/auth/login		-> Logs in a user and returns a JWT token
		a.POST("/login", with(user.UserLogin))

		// POST /api/auth/logout	-> Clears the auth cookies
		a.POST("/logout", with(user.UserLogout))
	}

	// GET /api/users/me		-> Returns the basic info of the caller
	m.GET("/users/me", jwt, with(user.UserFetch))

	st := m.Group("/staff", jwt, admin)
	{
		// POST /api/staff		-> Creates a staff account
		st.POST("", with(user.StaffCreate))

		// GET /api/staff		-> Lists staff accounts
		st.GET("", with(user.StaffList))

		// GET /api/staff/:id		-> Returns one staff account
		st.GET("/:id", with(user.StaffFetch))

		// DELETE /api/staff/:id	-> Deletes a staff account and releases their open reviews
		st.DELETE("/:id", with(user.StaffDelete))
	}

	mb := m.Group("/members", jwt, admin)
	{
		// POST /api/members		-> Creates a verified member
		mb.POST("", with(user.MemberCreate))

		// GET /api/members		-> Lists members
		mb.GET("", with(user.MemberList))

		// GET /api/members/:id	-> Returns one member with their profile
		mb.GET("/:id", with(user.MemberFetch))

		// DELETE /api/members/:id	-> Deletes a member
		mb.DELETE("/:id", with(user.MemberDelete))
	}

	s := m.Group("/suppliers")
	{
		// POST /api/suppliers/apply	-> Public supplier application
		s.POST("/apply", captcha, with(supplier.SupplierApply))

		// POST /api/suppliers/contract	-> Approved applicant signs and sets a password
		s.POST("/contract", with(supplier.ContractSign))

		sa := s.Group("", jwt, admin)

		// GET /api/suppliers/requests	-> Lists applications by status
		sa.GET("/requests", with(supplier.RequestList))

		// GET /api/suppliers/details	-> Returns one application by email and username
		sa.GET("/details", with(supplier.RequestDetail))

		// PUT /api/suppliers/interview	-> Schedules or moves an interview
		sa.PUT("/interview", with(supplier.RequestInterview))

		// PUT /api/suppliers/approve	-> Approves an interviewed applicant
		sa.PUT("/approve", with(supplier.RequestApprove))

		// PUT /api/suppliers/decline	-> Declines an interviewed applicant
		sa.PUT("/decline", with(supplier.RequestDecline))

		// PUT /api/suppliers/hide	-> Hides or unhides an application
		sa.PUT("/hide", with(supplier.RequestHide))

		// PUT /api/suppliers/contract	-> Replaces a signed contract
		sa.PUT("/contract", with(supplier.ContractUpdate))
	}

	for _, kind := range model.Kinds {
		on := func(h kindHandler) gin.HandlerFunc {
			return func(c *gin.Context) { h(c, d, kind) }
		}

		k := m.Group("/"+kind.Path(), jwt)

		// POST /api/{kind}/submissions	-> Supplier uploads new content
		k.POST("/submissions", supplierOnly, on(content.SubmissionCreate))

		// GET /api/{kind}/submissions	-> Lists submissions visible to the caller
		k.GET("/submissions", on(content.SubmissionList))

		// GET /api/{kind}/submissions/submitted -> Submissions waiting for an admin
		k.GET("/submissions/submitted", admin, on(content.SubmissionSubmitted))

		// GET /api/{kind}/submissions/:id	-> Submission detail with files
		k.GET("/submissions/:id", on(content.SubmissionDetail))

		// PUT /api/{kind}/submissions/:id/files/:fileID/resolve -> Replaces a file sent back for revision
		k.PUT("/submissions/:id/files/:fileID/resolve", supplierOnly, on(content.FileResolve))

		// POST /api/{kind}/submissions/:id/files/:fileID/revise	-> Staff asks for a revision
		k.POST("/submissions/:id/files/:fileID/revise", staff, on(review.FileRevise))

		// POST /api/{kind}/submissions/:id/files/:fileID/approve	-> Staff approves a file
		k.POST("/submissions/:id/files/:fileID/approve", staff, on(review.FileApprove))

		// POST /api/{kind}/submissions/:id/files/:fileID/reject	-> Staff rejects a file
		k.POST("/submissions/:id/files/:fileID/reject", staff, on(review.FileReject))

		// POST /api/{kind}/submissions/:id/submit	-> Staff hands the submission to admins
		k.POST("/submissions/:id/submit", staff, on(review.Submit))

		// POST /api/{kind}/submissions/:id/approve	-> Admin publishes the content
		k.POST("/submissions/:id/approve", admin, on(review.Approve))

		// POST /api/{kind}/submissions/:id/reject	-> Admin rejects the content
		k.POST("/submissions/:id/reject", admin, on(review.Reject))

		// GET /api/{kind}/discover	-> Newest approved content
		k.GET("/discover", cacheFor(cfg.CacheTTL), on(content.Discover))

		// GET /api/{kind}/approved	-> Paged approved content
		k.GET("/approved", cacheFor(cfg.CacheTTL), on(content.Approved))

		lib := k.Group("", member)

		// POST /api/{kind}/likes	-> Likes an approved file
		lib.POST("/likes", on(library.Like))

		// DELETE /api/{kind}/likes	-> Removes a like
		lib.DELETE("/likes", on(library.Unlike))

		// GET /api/{kind}/likes	-> Lists the caller's likes
		lib.GET("/likes", on(library.Likes))

		// POST /api/{kind}/downloads	-> Records a download and returns links
		lib.POST("/downloads", on(library.Download))

		// GET /api/{kind}/downloads	-> Lists downloaded content
		lib.GET("/downloads", on(library.Downloads))

		// GET /api/{kind}/downloads/:id/files	-> Files of one download
		lib.GET("/downloads/:id/files", on(library.DownloadFiles))

		// GET /api/{kind}/collections	-> Lists collections
		lib.GET("/collections", on(library.CollectionList))

		// POST /api/{kind}/collections	-> Creates a collection
		lib.POST("/collections", on(library.CollectionCreate))

		// GET /api/{kind}/collections/dropdown	-> Collection ids and names
		lib.GET("/collections/dropdown", on(library.CollectionDropdown))

		// GET /api/{kind}/collections/files	-> Collections with their files
		lib.GET("/collections/files", on(library.CollectionFiles))

		// DELETE /api/{kind}/collections/:id	-> Deletes a collection
		lib.DELETE("/collections/:id", on(library.CollectionDelete))

		// POST /api/{kind}/collections/:id/files	-> Adds a file to a collection
		lib.POST("/collections/:id/files", on(library.CollectionAdd))

		// DELETE /api/{kind}/collections/:id/files	-> Removes a file from a collection
		lib.DELETE("/collections/:id/files", on(library.CollectionRemove))

		// GET /api/{kind}/dropdowns	-> Active taxonomy for supplier forms
		k.GET("/dropdowns", cacheFor(cfg.CacheTTL), on(taxonomy.Dropdowns))

		// GET|POST /api/{kind}/genres, DELETE /api/{kind}/genres/:id
		k.GET("/genres", on(taxonomy.Genres))
		k.POST("/genres", admin, on(taxonomy.GenreCreate))
		k.DELETE("/genres/:id", admin, on(taxonomy.GenreDelete))

		// GET|POST /api/{kind}/genres/:id/sub-genres, DELETE .../:subID
		k.GET("/genres/:id/sub-genres", on(taxonomy.SubGenres))
		k.POST("/genres/:id/sub-genres", admin, on(taxonomy.SubGenreCreate))
		k.DELETE("/genres/:id/sub-genres/:subID", admin, on(taxonomy.SubGenreDelete))

		// GET|POST /api/{kind}/instruments, DELETE /api/{kind}/instruments/:id
		k.GET("/instruments", on(taxonomy.Instruments))
		k.POST("/instruments", admin, on(taxonomy.InstrumentCreate))
		k.DELETE("/instruments/:id", admin, on(taxonomy.InstrumentDelete))

		// GET|POST /api/{kind}/instruments/:id/sub-instruments, DELETE .../:subID
		k.GET("/instruments/:id/sub-instruments", on(taxonomy.SubInstruments))
		k.POST("/instruments/:id/sub-instruments", admin, on(taxonomy.SubInstrumentCreate))
		k.DELETE("/instruments/:id/sub-instruments/:subID", admin, on(taxonomy.SubInstrumentDelete))

		// GET|POST /api/{kind}/moods, DELETE /api/{kind}/moods/:id
		k.GET("/moods", on(taxonomy.Moods))
		k.POST("/moods", admin, on(taxonomy.MoodCreate))
		k.DELETE("/moods/:id", admin, on(taxonomy.MoodDelete))

		// GET|POST /api/{kind}/plugins, DELETE /api/{kind}/plugins/:id
		k.GET("/plugins", on(taxonomy.Plugins))
		k.POST("/plugins", admin, on(taxonomy.PluginCreate))
		k.DELETE("/plugins/:id", admin, on(taxonomy.PluginDelete))
	}

	p := m.Group("/plans", jwt, admin)
	{
		// GET /api/plans		-> Plan details offered for ?timeline=
		p.GET("", with(plan.ByTimeline))

		// GET /api/plans/pricing	-> Point and licence pricing
		p.GET("/pricing", with(plan.Pricing))

		// PUT /api/plans/pricing	-> Updates pricing
		p.PUT("/pricing", with(plan.PricingUpdate))

		for path, typ := range map[string]model.PlanType{
			"/custom":         model.PlanCustom,
			"/monthly-yearly": model.PlanMonthlyAnnually,
		} {
			on := func(h planHandler) gin.HandlerFunc {
				return func(c *gin.Context) { h(c, d, typ) }
			}

			// GET|POST|PUT|DELETE /api/plans/{custom,monthly-yearly}
			p.GET(path, on(plan.List))
			p.POST(path, on(plan.Create))
			p.PUT(path, on(plan.Update))
			p.DELETE(path, on(plan.Delete))

			// PATCH /api/plans/{custom,monthly-yearly}/status	-> Toggles is_active
			p.PATCH(path+"/status", on(plan.Toggle))
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found", "requestID": c.GetString("requestID")})
	})

	return router
}
