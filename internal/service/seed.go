package service

import (
	"context"
	"fmt"
	"io"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/pkg/security"
	"soulfamily/sounds-api/pkg/util"
	"soulfamily/sounds-api/pkg/validators"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type SeedNamed struct {
	Name     string   `yaml:"name"`
	Children []string `yaml:"children"`
}

type SeedPlugin struct {
	Name      string `yaml:"name"`
	Extension string `yaml:"extension"`
}

type SeedTaxonomy struct {
	Genres      []SeedNamed  `yaml:"genres"`
	Instruments []SeedNamed  `yaml:"instruments"`
	Moods       []string     `yaml:"moods"`
	Plugins     []SeedPlugin `yaml:"plugins"`
}

type SeedAdmin struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// SeedFile is the yaml document read by the seed command
type SeedFile struct {
	Admin    *SeedAdmin                  `yaml:"admin"`
	Taxonomy map[model.Kind]SeedTaxonomy `yaml:"taxonomy"`
}

func ParseSeed(r io.Reader) (*SeedFile, error) {
	var f SeedFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file, %w", err)
	}

	for kind := range f.Taxonomy {
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown kind %q in seed file", kind)
		}
	}

	return &f, nil
}

// Seed inserts the admin account and reference data from f. Rows that
// already exist are left alone so seeding can run on every deploy.
func Seed(ctx context.Context, db *gorm.DB, argon *security.Argon, f *SeedFile) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if f.Admin != nil {
			if err := seedAdmin(tx, argon, f.Admin); err != nil {
				return err
			}
		}

		for kind, t := range f.Taxonomy {
			if err := seedTaxonomy(tx, kind, t); err != nil {
				return fmt.Errorf("failed to seed %s taxonomy, %w", kind, err)
			}
		}

		return nil
	})
}

func seedAdmin(tx *gorm.DB, argon *security.Argon, a *SeedAdmin) error {
	if err := validators.Email(a.Email); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := validators.Password(a.Password); err != nil {
		return fmt.Errorf("admin: %w", err)
	}

	var n int64
	if err := tx.Model(&model.User{}).Where("email = ?", a.Email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		zap.L().Debug("Admin already exists, skipping", zap.String("email", a.Email))
		return nil
	}

	hash, err := argon.Hash(a.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password, %w", err)
	}

	username := a.Username
	if username == "" {
		username = generatedUsername(model.RoleAdmin)
	}

	admin := model.User{
		ID:           util.RandStr(userIDSize),
		Email:        a.Email,
		Username:     username,
		Name:         a.Name,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Verified:     true,
	}

	if err := tx.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin, %w", err)
	}

	zap.L().Info("Admin created", zap.String("userID", admin.ID))
	return nil
}

func seedTaxonomy(tx *gorm.DB, kind model.Kind, t SeedTaxonomy) error {
	for _, g := range t.Genres {
		genre := model.Genre{Kind: kind, Name: g.Name, Active: true}
		if err := tx.Where(model.Genre{Kind: kind, Name: g.Name}).FirstOrCreate(&genre).Error; err != nil {
			return err
		}

		for _, name := range g.Children {
			sub := model.SubGenre{GenreID: genre.ID, Name: name}
			if err := tx.Where(sub).FirstOrCreate(&sub).Error; err != nil {
				return err
			}
		}
	}

	for _, i := range t.Instruments {
		instrument := model.Instrument{Kind: kind, Name: i.Name, Active: true}
		if err := tx.Where(model.Instrument{Kind: kind, Name: i.Name}).FirstOrCreate(&instrument).Error; err != nil {
			return err
		}

		for _, name := range i.Children {
			sub := model.SubInstrument{InstrumentID: instrument.ID, Name: name}
			if err := tx.Where(sub).FirstOrCreate(&sub).Error; err != nil {
				return err
			}
		}
	}

	for _, name := range t.Moods {
		mood := model.Mood{Kind: kind, Name: name, Active: true}
		if err := tx.Where(model.Mood{Kind: kind, Name: name}).FirstOrCreate(&mood).Error; err != nil {
			return err
		}
	}

	for _, p := range t.Plugins {
		plugin := model.Plugin{Kind: kind, Name: p.Name, Extension: p.Extension, Active: true}
		if err := tx.Where(model.Plugin{Kind: kind, Name: p.Name}).FirstOrCreate(&plugin).Error; err != nil {
			return err
		}
	}

	return nil
}
