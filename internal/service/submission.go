package service

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"
	"time"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/security"
	"soulfamily/sounds-api/pkg/util"
	"soulfamily/sounds-api/pkg/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	requiredMoods = 3
	discoverLimit = 15
)

// SubmissionService runs the supplier side of the workflow and the
// catalogue listings. Every method takes the content kind so packs and
// beats share one implementation.
type SubmissionService struct {
	db       *gorm.DB
	uploader *Uploader
	ceiling  int
}

func NewSubmissionService(db *gorm.DB, uploader *Uploader, ceiling int) *SubmissionService {
	return &SubmissionService{
		db:       db,
		uploader: uploader,
		ceiling:  ceiling,
	}
}

type CreateSubmission struct {
	Type           string
	Title          string
	Description    string
	Genre          string
	SubGenre       string
	Moods          []string
	ExclusivePrice float64
	Artwork        Upload
	Demo           FileInput
	Files          []FileInput
}

// SubmissionView is a submission as returned to clients
type SubmissionView struct {
	model.Submission
	FilesCount int64  `json:"files_count"`
	ArtworkURL string `json:"artwork_url,omitempty"`
	CreatedAgo string `json:"created_ago"`
}

type Page[T any] struct {
	Results []T   `json:"results"`
	Count   int64 `json:"count"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
}

func (s *SubmissionService) titleTaken(db *gorm.DB, kind model.Kind, contentType, title string) (bool, error) {
	var n int64

	err := db.
		Model(&model.Submission{}).
		Joins("JOIN content_items ON content_items.id = submissions.content_id").
		Where("submissions.kind = ? AND submissions.content_type = ? AND content_items.title = ?", kind, contentType, title).
		Count(&n).
		Error

	return n > 0, err
}

// Create validates a complete submission, stores its files and writes
// every row in one transaction. The submission starts in Uploaded with an
// automatically chosen reviewer.
func (s *SubmissionService) Create(ctx context.Context, p security.Principal, kind model.Kind, in CreateSubmission) (*model.Submission, error) {
	if !p.Is(model.RoleSupplier) {
		return nil, forbidden("only suppliers can submit content")
	}

	db := s.db.WithContext(ctx)

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, badRequest("%s is required", field(kind, "title"))
	}

	if !kind.AcceptsType(in.Type) {
		return nil, badRequest("invalid %s", field(kind, "type"))
	}

	taken, err := s.titleTaken(db, kind, in.Type, in.Title)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, badRequest("%s already exists", field(kind, "title"))
	}

	if strings.TrimSpace(in.Description) == "" {
		return nil, badRequest("%s is required", field(kind, "description"))
	}

	if in.Demo.Upload.Empty() {
		return nil, badRequest("%s is required", field(kind, "demo"))
	}

	if in.Artwork.Empty() {
		return nil, badRequest("%s is required", field(kind, "artwork_file"))
	}

	if in.ExclusivePrice < 0 {
		return nil, badRequest("%s must be a positive number", field(kind, "exclusive_price"))
	}

	names := slices.Compact(slices.Sorted(slices.Values(in.Moods)))
	if len(in.Moods) != requiredMoods || len(names) != requiredMoods {
		return nil, badRequest("%s must be %d", field(kind, "mood"), requiredMoods)
	}

	var moods []model.Mood
	err = db.
		Where("kind = ? AND name IN ?", kind, names).
		Find(&moods).
		Error
	if err != nil {
		return nil, err
	}
	if len(moods) < requiredMoods {
		return nil, badRequest("provide valid moods")
	}

	genre, err := first[model.Genre](db, badRequest("%s does not exist", field(kind, "genre")), "kind = ? AND name = ?", kind, in.Genre)
	if err != nil {
		return nil, err
	}

	subGenre, err := first[model.SubGenre](db, badRequest("%s does not exist", field(kind, "sub_genre")), "genre_id = ? AND name = ?", genre.ID, in.SubGenre)
	if err != nil {
		return nil, err
	}

	if len(in.Files) == 0 {
		return nil, badRequest("%s is required", field(kind, "audio_files"))
	}

	// The demo goes last so its stored object lines up with the final
	// slot of the upload batch
	inputs := append(slices.Clone(in.Files), in.Demo)

	audio := make([]*model.AudioFile, len(inputs))
	uploads := make([]Upload, len(inputs))
	for i, fi := range inputs {
		af, err := classify(db, kind, fi)
		if err != nil {
			return nil, err
		}

		audio[i] = af
		uploads[i] = fi.Upload
	}

	stored, err := s.uploader.Store(ctx, path.Join(kind.Path(), "audio"), validators.AudioTypes, uploads...)
	if err != nil {
		return nil, err
	}

	artwork, err := s.uploader.Store(ctx, path.Join(kind.Path(), "artwork"), validators.ImageTypes, in.Artwork)
	if err != nil {
		s.uploader.Discard(stored...)
		return nil, err
	}

	for i, af := range audio {
		af.File = stored[i]
		af.File.Name = inputs[i].Name
	}

	var sub model.Submission

	err = db.Transaction(func(tx *gorm.DB) error {
		taken, err := s.titleTaken(tx, kind, in.Type, in.Title)
		if err != nil {
			return err
		}
		if taken {
			return badRequest("%s already exists", field(kind, "title"))
		}

		files := make([]model.AudioFile, 0, len(audio)-1)
		for i, af := range audio {
			if err := tx.Create(af).Error; err != nil {
				return err
			}

			if i < len(audio)-1 {
				files = append(files, *af)
			}
		}

		demo := audio[len(audio)-1]

		approver, err := approvalPerson(tx, s.ceiling)
		if err != nil {
			return err
		}

		item := model.ContentItem{
			Kind:           kind,
			Title:          in.Title,
			Description:    in.Description,
			GenreID:        &genre.ID,
			SubGenreID:     &subGenre.ID,
			Moods:          moods,
			DemoFileID:     &demo.ID,
			ArtworkKey:     artwork[0].ObjectKey,
			AudioFiles:     files,
			ExclusivePrice: in.ExclusivePrice,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		sub = model.Submission{
			Kind:             kind,
			ContentType:      in.Type,
			ContentID:        item.ID,
			SupplierID:       p.UserID,
			ApprovalPersonID: approver,
			Status:           workflow.SubmissionUploaded,
		}
		if err := tx.Omit(clause.Associations).Create(&sub).Error; err != nil {
			return err
		}

		sub.Content = item
		sub.Content.DemoFile = demo
		return nil
	})
	if err != nil {
		s.uploader.Discard(append(stored, artwork...)...)
		return nil, err
	}

	zap.L().Info("Content submitted",
		zap.String("kind", string(kind)),
		zap.Uint("submissionID", sub.ID),
		zap.Stringp("approvalPerson", sub.ApprovalPersonID),
	)

	return &sub, nil
}

// fileInContent loads an audio file that is either the demo or part of the
// audio set of content item contentID
func fileInContent(db *gorm.DB, contentID, fileID uint) (*model.AudioFile, error) {
	var af model.AudioFile

	err := db.
		Preload("File").
		Where("audio_files.id = ?", fileID).
		Where(
			db.
				Where("audio_files.id = (?)", db.Model(&model.ContentItem{}).Select("demo_file_id").Where("id = ?", contentID)).
				Or("audio_files.id IN (?)", db.Table("content_audio_files").Select("audio_file_id").Where("content_item_id = ?", contentID)),
		).
		First(&af).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("file not found!")
	}
	if err != nil {
		return nil, err
	}

	return &af, nil
}

func loadSubmission(db *gorm.DB, kind model.Kind, id uint) (*model.Submission, error) {
	sub, err := first[model.Submission](db.Preload("Content"), notFound("%s not found!", kind), "submissions.id = ? AND submissions.kind = ?", id, kind)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// advanceSubmission fires ev and persists the new status only if nobody
// changed it since sub was loaded
func advanceSubmission(tx *gorm.DB, sub *model.Submission, ev workflow.SubmissionEvent) error {
	next, err := workflow.Submission.Next(sub.Status, ev)
	if err != nil {
		return err
	}

	res := tx.
		Model(&model.Submission{}).
		Where("id = ? AND status = ?", sub.ID, sub.Status).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("submission changed while processing, please retry")
	}

	sub.Status = next
	return nil
}

func advanceFile(tx *gorm.DB, af *model.AudioFile, ev workflow.FileEvent, extra map[string]any) error {
	next, err := workflow.File.Next(af.Status, ev)
	if err != nil {
		return err
	}

	updates := map[string]any{"status": next}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.
		Model(&model.AudioFile{}).
		Where("id = ? AND status = ?", af.ID, af.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("file changed while processing, please retry")
	}

	af.Status = next
	return nil
}

// ResolveRevision replaces a file that staff sent back. Only the owning
// supplier can resolve, and only files currently in Revise are accepted.
func (s *SubmissionService) ResolveRevision(ctx context.Context, p security.Principal, kind model.Kind, submissionID, fileID uint, in FileInput) (*model.AudioFile, error) {
	if !p.Is(model.RoleSupplier) {
		return nil, forbidden("only suppliers can resolve revisions")
	}

	db := s.db.WithContext(ctx)

	sub, err := loadSubmission(db, kind, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.SupplierID != p.UserID {
		return nil, notFound("%s not found!", kind)
	}

	if _, err := workflow.Submission.Next(sub.Status, workflow.EventResolveRevision); err != nil {
		return nil, err
	}

	af, err := fileInContent(db, sub.ContentID, fileID)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.File.Next(af.Status, workflow.FileEventResolve); err != nil {
		return nil, err
	}

	next, err := classify(db, kind, in)
	if err != nil {
		return nil, err
	}

	stored, err := s.uploader.Store(ctx, path.Join(kind.Path(), "audio"), validators.AudioTypes, in.Upload)
	if err != nil {
		return nil, err
	}
	stored[0].Name = in.Name

	old := af.File

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := advanceSubmission(tx, sub, workflow.EventResolveRevision); err != nil {
			return err
		}

		if err := tx.Create(stored[0]).Error; err != nil {
			return err
		}

		if af.BPMID != nil {
			err := tx.
				Model(&model.BPM{ID: *af.BPMID}).
				Updates(map[string]any{"start": next.BPM.Start, "end": next.BPM.End, "type": next.BPM.Type}).
				Error
			if err != nil {
				return err
			}
		}

		if af.KeyID != nil {
			err := tx.
				Model(&model.MusicalKey{ID: *af.KeyID}).
				Updates(map[string]any{"name": next.Key.Name, "scale": next.Key.Scale, "type": next.Key.Type}).
				Error
			if err != nil {
				return err
			}
		}

		err := advanceFile(tx, af, workflow.FileEventResolve, map[string]any{
			"file_id":           stored[0].ID,
			"genre_id":          next.GenreID,
			"sub_genre_id":      next.SubGenreID,
			"instrument_id":     next.InstrumentID,
			"sub_instrument_id": next.SubInstrumentID,
			"mood_id":           next.MoodID,
			"type":              next.Type,
			"source":            next.Source,
		})
		if err != nil || old == nil {
			return err
		}

		return tx.Delete(old).Error
	})
	if err != nil {
		s.uploader.Discard(stored...)
		return nil, err
	}

	if old != nil {
		if err := s.uploader.store.Delete(ctx, old.ObjectKey); err != nil {
			zap.L().Warn("Failed to delete replaced file", zap.String("key", old.ObjectKey), zap.Error(err))
		}
	}

	var out model.AudioFile
	err = db.
		Preload(clause.Associations).
		First(&out, af.ID).
		Error

	return &out, err
}

func validType(kind model.Kind, contentType string) error {
	if contentType != "" && !kind.AcceptsType(contentType) {
		return badRequest("invalid %s type", kind)
	}

	return nil
}

// visible restricts a submissions query to what p may see
func visible(q *gorm.DB, p security.Principal) (*gorm.DB, error) {
	switch p.Role {
	case model.RoleAdmin:
		return q, nil
	case model.RoleStaff:
		return q.Where("submissions.approval_person_id = ? OR submissions.approval_person_id IS NULL", p.UserID), nil
	case model.RoleSupplier:
		return q.Where("submissions.supplier_id = ?", p.UserID), nil
	case model.RoleMember:
		return q.Where("submissions.status = ?", workflow.SubmissionApproved), nil
	}

	return nil, forbidden("You do not have permission to perform this action.")
}

func summaryPreloads(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Content").
		Preload("Content.Genre").
		Preload("Content.SubGenre").
		Preload("Content.Moods").
		Preload("Supplier").
		Preload("ApprovalPerson")
}

// List returns the submissions of kind that p is allowed to see
func (s *SubmissionService) List(ctx context.Context, p security.Principal, kind model.Kind, contentType string) ([]SubmissionView, error) {
	if p.Is(model.RoleMember) {
		return nil, forbidden("You do not have permission to perform this action.")
	}

	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	q, err := visible(s.db.WithContext(ctx).Where("submissions.kind = ?", kind), p)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		q = q.Where("submissions.content_type = ?", contentType)
	}

	var subs []model.Submission
	err = summaryPreloads(q).
		Order("submissions.created_at DESC").
		Find(&subs).
		Error
	if err != nil {
		return nil, err
	}

	return s.present(ctx, subs)
}

// ListSubmitted is the admin queue of submissions waiting for a decision
func (s *SubmissionService) ListSubmitted(ctx context.Context, kind model.Kind, contentType string) ([]SubmissionView, error) {
	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	q := s.db.
		WithContext(ctx).
		Where("submissions.kind = ? AND submissions.status = ?", kind, workflow.SubmissionSubmitted)
	if contentType != "" {
		q = q.Where("submissions.content_type = ?", contentType)
	}

	var subs []model.Submission
	err := summaryPreloads(q).
		Order("submissions.updated_at ASC").
		Find(&subs).
		Error
	if err != nil {
		return nil, err
	}

	return s.present(ctx, subs)
}

// Detail loads one submission with all of its files. Members only see
// approved files.
func (s *SubmissionService) Detail(ctx context.Context, p security.Principal, kind model.Kind, id uint) (*SubmissionView, error) {
	q, err := visible(s.db.WithContext(ctx).Where("submissions.kind = ?", kind), p)
	if err != nil {
		return nil, err
	}

	fileScope := func(db *gorm.DB) *gorm.DB {
		if p.Role == model.RoleMember {
			return db.Where("audio_files.status = ?", workflow.FileApproved)
		}
		return db
	}

	var sub model.Submission
	err = summaryPreloads(q).
		Preload("Content.DemoFile").
		Preload("Content.DemoFile.File").
		Preload("Content.AudioFiles", fileScope).
		Preload("Content.AudioFiles.File").
		Preload("Content.AudioFiles.Genre").
		Preload("Content.AudioFiles.SubGenre").
		Preload("Content.AudioFiles.Instrument").
		Preload("Content.AudioFiles.SubInstrument").
		Preload("Content.AudioFiles.Mood").
		Preload("Content.AudioFiles.BPM").
		Preload("Content.AudioFiles.Key").
		Where("submissions.id = ?", id).
		First(&sub).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("%s not found!", kind)
	}
	if err != nil {
		return nil, err
	}

	views, err := s.present(ctx, []model.Submission{sub})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

func approvedQuery(db *gorm.DB, kind model.Kind, contentType string) *gorm.DB {
	q := db.Where("submissions.kind = ? AND submissions.status = ?", kind, workflow.SubmissionApproved)
	if contentType != "" {
		q = q.Where("submissions.content_type = ?", contentType)
	}

	return q
}

// Discover returns the newest approved content of kind
func (s *SubmissionService) Discover(ctx context.Context, kind model.Kind, contentType string) ([]SubmissionView, error) {
	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	var subs []model.Submission
	err := summaryPreloads(approvedQuery(s.db.WithContext(ctx), kind, contentType)).
		Preload("Content.DemoFile").
		Preload("Content.DemoFile.File").
		Order("submissions.updated_at DESC").
		Limit(discoverLimit).
		Find(&subs).
		Error
	if err != nil {
		return nil, err
	}

	return s.present(ctx, subs)
}

// Approved pages through all approved content of kind
func (s *SubmissionService) Approved(ctx context.Context, kind model.Kind, contentType string, page, limit int) (*Page[SubmissionView], error) {
	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	page = max(page, 1)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	db := s.db.WithContext(ctx)

	var total int64
	err := approvedQuery(db.Model(&model.Submission{}), kind, contentType).
		Count(&total).
		Error
	if err != nil {
		return nil, err
	}

	var subs []model.Submission
	err = summaryPreloads(approvedQuery(db, kind, contentType)).
		Order("submissions.updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&subs).
		Error
	if err != nil {
		return nil, err
	}

	views, err := s.present(ctx, subs)
	if err != nil {
		return nil, err
	}

	return &Page[SubmissionView]{
		Results: views,
		Count:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

func (s *SubmissionService) present(ctx context.Context, subs []model.Submission) ([]SubmissionView, error) {
	views := make([]SubmissionView, len(subs))
	if len(subs) == 0 {
		return views, nil
	}

	ids := make([]uint, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ContentID
	}

	var counts []struct {
		ContentItemID uint
		N             int64
	}
	err := s.db.
		WithContext(ctx).
		Table("content_audio_files").
		Select("content_item_id, COUNT(*) AS n").
		Where("content_item_id IN ?", ids).
		Group("content_item_id").
		Scan(&counts).
		Error
	if err != nil {
		return nil, err
	}

	byContent := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byContent[c.ContentItemID] = c.N
	}

	now := time.Now()
	for i, sub := range subs {
		views[i] = SubmissionView{
			Submission: sub,
			FilesCount: byContent[sub.ContentID],
			CreatedAgo: util.HumanizeSince(sub.CreatedAt, now),
		}

		if sub.Content.ArtworkKey != "" {
			url, err := s.uploader.store.PresignGet(ctx, sub.Content.ArtworkKey, path.Base(sub.Content.ArtworkKey))
			if err != nil {
				return nil, err
			}
			views[i].ArtworkURL = url
		}
	}

	return views, nil
}
