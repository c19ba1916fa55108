package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"soulfamily/sounds-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pricingID = 1

type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

type PlanDetailInput struct {
	Pricing  *int   `json:"pricing"`
	Points   *int   `json:"points"`
	Timeline string `json:"timeline"`
	Duration *int   `json:"duration"`
}

type PlanInput struct {
	ID      uint              `json:"id"`
	Name    string            `json:"name"`
	Type    model.PlanType    `json:"plan_type"`
	Details []PlanDetailInput `json:"details"`
}

// PricingInput uses pointers so a missing value can be told apart from 0
type PricingInput struct {
	CentsPerPoint     *float64 `json:"cents_per_point"`
	PointsPerSample   *int     `json:"points_per_sample"`
	PointsPerMidi     *int     `json:"points_per_midi"`
	PointsPerPreset   *int     `json:"points_per_preset"`
	NonProfitsLicence *int     `json:"non_profits_licence"`
	CommercialLicence *int     `json:"commercial_licence"`
	UnlimitedLicence  *int     `json:"unlimited_licence"`
}

func validDetail(typ model.PlanType, d PlanDetailInput) error {
	if d.Pricing == nil {
		return badRequest("pricing is required.")
	}
	if d.Points == nil {
		return badRequest("points is required.")
	}
	if d.Timeline == "" {
		return badRequest("timeline is required.")
	}
	if !slices.Contains(model.Timelines, model.Timeline(d.Timeline)) {
		return badRequest("timeline is not valid.")
	}

	if typ == model.PlanCustom {
		if d.Duration == nil {
			return badRequest("duration is required.")
		}
		if *d.Duration < 1 {
			return badRequest("duration should be at-least one day.")
		}
	}

	return nil
}

// validPlan checks in against the shape required by typ. Custom plans
// carry one detail, Monthly/Annually plans one Monthly and one Yearly.
func validPlan(typ model.PlanType, in PlanInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return badRequest("name is required.")
	}
	if in.Type == "" {
		return badRequest("plan_type is required.")
	}
	if in.Type != typ {
		return badRequest("plan_type is invalid.")
	}

	switch typ {
	case model.PlanCustom:
		if len(in.Details) != 1 {
			return badRequest("Custom Plan must have one timeline.")
		}
	case model.PlanMonthlyAnnually:
		if len(in.Details) != 2 {
			return badRequest("Monthly/Annually Plan must have two timelines.")
		}
	}

	for _, d := range in.Details {
		if err := validDetail(typ, d); err != nil {
			return err
		}
	}

	if typ == model.PlanMonthlyAnnually && in.Details[0].Timeline == in.Details[1].Timeline {
		return badRequest("Monthly/Annually Plan must have Monthly and Yearly.")
	}

	return nil
}

func detailRow(d PlanDetailInput) model.PlanDetail {
	return model.PlanDetail{
		Pricing:  *d.Pricing,
		Points:   *d.Points,
		Timeline: model.Timeline(d.Timeline),
		Currency: model.CurrencyDollar,
		Duration: d.Duration,
	}
}

// ByTimeline lists every plan detail offered for timeline
func (s *PlanService) ByTimeline(ctx context.Context, timeline string) ([]model.PlanDetail, error) {
	if !slices.Contains(model.Timelines, model.Timeline(timeline)) {
		return nil, notFound("invalid timeline")
	}

	var out []model.PlanDetail
	err := s.db.
		WithContext(ctx).
		Preload("Plan").
		Where("timeline = ?", timeline).
		Order("id ASC").
		Find(&out).
		Error

	return out, err
}

func (s *PlanService) List(ctx context.Context, typ model.PlanType) ([]model.Plan, error) {
	var out []model.Plan
	err := s.db.
		WithContext(ctx).
		Preload("Details").
		Where("type = ?", typ).
		Order("id ASC").
		Find(&out).
		Error

	return out, err
}

func (s *PlanService) Create(ctx context.Context, typ model.PlanType, in PlanInput) (*model.Plan, error) {
	if err := validPlan(typ, in); err != nil {
		return nil, err
	}

	plan := model.Plan{
		Name:   strings.TrimSpace(in.Name),
		Type:   typ,
		Status: model.PlanActive,
	}
	for _, d := range in.Details {
		plan.Details = append(plan.Details, detailRow(d))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Plan{}).Where("name = ?", plan.Name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return badRequest("plan already exists")
		}

		return tx.Create(&plan).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Plan created", zap.Uint("planID", plan.ID), zap.String("type", string(typ)))

	return &plan, nil
}

func (s *PlanService) load(db *gorm.DB, typ model.PlanType, id uint, name string) (*model.Plan, error) {
	var plan model.Plan

	err := db.
		Preload("Details").
		Where("id = ? AND name = ? AND type = ?", id, name, typ).
		First(&plan).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("plan not found")
	}
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

// Update rewrites the details of an existing plan, matching them by
// timeline
func (s *PlanService) Update(ctx context.Context, typ model.PlanType, in PlanInput) (*model.Plan, error) {
	db := s.db.WithContext(ctx)

	plan, err := s.load(db, typ, in.ID, in.Name)
	if err != nil {
		return nil, err
	}

	if err := validPlan(typ, in); err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&model.PlanDetail{}).Error; err != nil {
			return err
		}

		plan.Details = plan.Details[:0]
		for _, d := range in.Details {
			row := detailRow(d)
			row.PlanID = plan.ID

			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			plan.Details = append(plan.Details, row)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

// ToggleStatus flips a plan between Active and Inactive
func (s *PlanService) ToggleStatus(ctx context.Context, typ model.PlanType, id uint, name string) (*model.Plan, error) {
	db := s.db.WithContext(ctx)

	plan, err := s.load(db, typ, id, name)
	if err != nil {
		return nil, err
	}

	next := model.PlanActive
	if plan.Status == model.PlanActive {
		next = model.PlanInactive
	}

	res := db.
		Model(&model.Plan{}).
		Where("id = ? AND status = ?", plan.ID, plan.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, conflict("plan changed while processing, please retry")
	}

	plan.Status = next
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, typ model.PlanType, id uint, name string) error {
	db := s.db.WithContext(ctx)

	plan, err := s.load(db, typ, id, name)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&model.PlanDetail{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.Plan{}, plan.ID).Error
	})
}

func (s *PlanService) Pricing(ctx context.Context) (*model.Pricing, error) {
	var p model.Pricing

	err := s.db.
		WithContext(ctx).
		Where(model.Pricing{ID: pricingID}).
		FirstOrCreate(&p).
		Error
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func nonNegative[T int | float64](v *T, name, kind string) error {
	if v == nil {
		return badRequest("%s is required.", name)
	}
	if *v < 0 {
		return badRequest("%s must be a positive %s.", name, kind)
	}

	return nil
}

func (s *PlanService) UpdatePricing(ctx context.Context, in PricingInput) (*model.Pricing, error) {
	if err := nonNegative(in.CentsPerPoint, "cents_per_point", "decimal"); err != nil {
		return nil, err
	}

	ints := []struct {
		v    *int
		name string
	}{
		{in.PointsPerSample, "points_per_sample"},
		{in.PointsPerMidi, "points_per_midi"},
		{in.PointsPerPreset, "points_per_preset"},
		{in.NonProfitsLicence, "non_profits_licence"},
		{in.CommercialLicence, "commercial_licence"},
		{in.UnlimitedLicence, "unlimited_licence"},
	}
	for _, f := range ints {
		if err := nonNegative(f.v, f.name, "number"); err != nil {
			return nil, err
		}
	}

	p := model.Pricing{
		ID:                pricingID,
		CentsPerPoint:     *in.CentsPerPoint,
		PointsPerSample:   *in.PointsPerSample,
		PointsPerMidi:     *in.PointsPerMidi,
		PointsPerPreset:   *in.PointsPerPreset,
		NonProfitsLicence: *in.NonProfitsLicence,
		CommercialLicence: *in.CommercialLicence,
		UnlimitedLicence:  *in.UnlimitedLicence,
	}

	err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&p).
		Error
	if err != nil {
		return nil, err
	}

	return &p, nil
}
