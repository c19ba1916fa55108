package db

import (
	"errors"
	"fmt"

	"soulfamily/sounds-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate
var Models = []any{
	&model.User{},
	&model.MemberProfile{},
	&model.SupplierProfile{},
	&model.SupplierRequest{},
	&model.VerificationToken{},
	&model.Migration{},

	&model.Genre{},
	&model.SubGenre{},
	&model.Instrument{},
	&model.SubInstrument{},
	&model.Mood{},
	&model.Plugin{},
	&model.MusicalKey{},
	&model.BPM{},

	&model.StoredFile{},
	&model.AudioFile{},
	&model.ContentItem{},
	&model.Submission{},

	&model.Like{},
	&model.Download{},
	&model.DownloadFile{},
	&model.Collection{},
	&model.CollectionFile{},

	&model.Plan{},
	&model.PlanDetail{},
	&model.Pricing{},
}

type dataMigration struct {
	name string
	run  func(tx *gorm.DB) error
}

// dataMigrations run once each, in order, and are recorded in the
// migrations table
var dataMigrations = []dataMigration{
	{name: "0001_default_pricing", run: func(tx *gorm.DB) error {
		return tx.
			Where(model.Pricing{ID: 1}).
			FirstOrCreate(&model.Pricing{ID: 1}).
			Error
	}},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	for _, m := range dataMigrations {
		err := db.Transaction(func(tx *gorm.DB) error {
			var applied model.Migration
			err := tx.
				Where("name = ?", m.name).
				First(&applied).
				Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if err := m.run(tx); err != nil {
				return err
			}

			zap.L().Info("Applied data migration", zap.String("name", m.name))
			return tx.Create(&model.Migration{Name: m.name}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s, %w", m.name, err)
		}
	}

	return nil
}
