package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/security"
	"soulfamily/sounds-api/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryService covers everything a member does with approved content:
// likes, downloads and collections. Counters only move in the same
// transaction that creates or deletes the matching join row.
type LibraryService struct {
	db       *gorm.DB
	uploader *Uploader
}

func NewLibraryService(db *gorm.DB, uploader *Uploader) *LibraryService {
	return &LibraryService{
		db:       db,
		uploader: uploader,
	}
}

type FileRef struct {
	ContentID   uint
	AudioFileID uint
}

type LikeView struct {
	LikeID     uint   `json:"like_id"`
	ContentID  uint   `json:"content_id"`
	FileID     uint   `json:"file_id"`
	FileName   string `json:"file_name"`
	FileURL    string `json:"file"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artwork"`
	CreatedAgo string `json:"created_at"`
}

type FileLink struct {
	AudioFileID uint   `json:"audio_file_id"`
	FileName    string `json:"file_name"`
	URL         string `json:"file"`
}

type DownloadResult struct {
	DownloadID uint       `json:"download_id"`
	Files      []FileLink `json:"files"`
}

type DownloadView struct {
	ID         uint   `json:"id"`
	ContentID  uint   `json:"content_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artwork"`
}

type DownloadFileView struct {
	DownloadID  uint   `json:"download_id"`
	AudioFileID uint   `json:"audio_file_id"`
	FileName    string `json:"file_name"`
	FileURL     string `json:"file"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ArtworkURL  string `json:"artwork"`
	CreatedAgo  string `json:"created_at"`
}

type CollectionOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CollectionFileInput struct {
	CollectionID   uint
	CollectionName string
	FileRef
}

type CollectionFileView struct {
	ContentID   uint   `json:"content_id"`
	AudioFileID uint   `json:"audio_file_id"`
	FileName    string `json:"file_name"`
	FileURL     string `json:"file"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ArtworkURL  string `json:"artwork"`
	CreatedAgo  string `json:"created_at"`
}

type CollectionGroup struct {
	CollectionID uint                 `json:"collection_id"`
	Name         string               `json:"collection_name"`
	Files        []CollectionFileView `json:"collection_files"`
}

func member(p security.Principal) error {
	if !p.Is(model.RoleMember) {
		return forbidden("only members can use the library")
	}

	return nil
}

// approvedContent loads a content item of kind whose submission is Approved
func approvedContent(db *gorm.DB, kind model.Kind, contentID uint) (*model.ContentItem, error) {
	var sub model.Submission

	err := db.
		Preload("Content").
		Where("content_id = ? AND kind = ? AND status = ?", contentID, kind, workflow.SubmissionApproved).
		First(&sub).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("%s not found.", kind)
	}
	if err != nil {
		return nil, err
	}

	return &sub.Content, nil
}

// approvedFile checks that ref points at an approved file of an approved
// item
func approvedFile(db *gorm.DB, kind model.Kind, ref FileRef) (*model.ContentItem, *model.AudioFile, error) {
	if ref.ContentID == 0 {
		return nil, nil, badRequest("%s is required.", field(kind, "id"))
	}
	if ref.AudioFileID == 0 {
		return nil, nil, badRequest("audio_file_id is required.")
	}

	item, err := approvedContent(db, kind, ref.ContentID)
	if err != nil {
		return nil, nil, err
	}

	af, err := fileInContent(db, item.ID, ref.AudioFileID)
	if Code(err) == 404 {
		return nil, nil, badRequest("audio file not found in %s.", kind)
	}
	if err != nil {
		return nil, nil, err
	}

	if af.Status != workflow.FileApproved {
		return nil, nil, badRequest("audio file not found.")
	}

	return item, af, nil
}

func contentTypeScope(kind model.Kind, contentType, contentColumn string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.
			Joins("JOIN submissions ON submissions.content_id = "+contentColumn).
			Where("submissions.kind = ?", kind)
		if contentType != "" {
			db = db.Where("submissions.content_type = ?", contentType)
		}
		return db
	}
}

// artists maps content ids to the name shown as the artist, the supplier's
// artist name when set and their display name otherwise
func artists(db *gorm.DB, contentIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(contentIDs))
	if len(contentIDs) == 0 {
		return out, nil
	}

	var subs []model.Submission
	err := db.
		Preload("Supplier").
		Preload("Supplier.Supplier").
		Where("content_id IN ?", contentIDs).
		Find(&subs).
		Error
	if err != nil {
		return nil, err
	}

	for _, sub := range subs {
		if sub.Supplier == nil {
			continue
		}

		name := sub.Supplier.Name
		if sub.Supplier.Supplier != nil && sub.Supplier.Supplier.ArtistName != "" {
			name = sub.Supplier.Supplier.ArtistName
		}
		out[sub.ContentID] = name
	}

	return out, nil
}

func (s *LibraryService) artwork(ctx context.Context, item *model.ContentItem) (string, error) {
	if item.ArtworkKey == "" {
		return "", nil
	}

	return s.uploader.store.PresignGet(ctx, item.ArtworkKey, item.Title)
}

func (s *LibraryService) Like(ctx context.Context, p security.Principal, kind model.Kind, ref FileRef) error {
	if err := member(p); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	_, af, err := approvedFile(db, kind, ref)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		like := model.Like{
			MemberID:    p.UserID,
			ContentID:   ref.ContentID,
			AudioFileID: af.ID,
		}

		res := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return badRequest("file already liked.")
		}

		return tx.
			Model(&model.AudioFile{}).
			Where("id = ?", af.ID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).
			Error
	})
}

func (s *LibraryService) Unlike(ctx context.Context, p security.Principal, kind model.Kind, ref FileRef) error {
	if err := member(p); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("member_id = ? AND content_id = ? AND audio_file_id = ?", p.UserID, ref.ContentID, ref.AudioFileID).
			Where("content_id IN (?)", tx.Model(&model.ContentItem{}).Select("id").Where("kind = ?", kind)).
			Delete(&model.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return badRequest("file not liked yet.")
		}

		return tx.
			Model(&model.AudioFile{}).
			Where("id = ? AND likes_count > 0", ref.AudioFileID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).
			Error
	})
}

// Likes lists the files p liked, newest first
func (s *LibraryService) Likes(ctx context.Context, p security.Principal, kind model.Kind, contentType string) ([]LikeView, error) {
	if err := member(p); err != nil {
		return nil, err
	}
	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var likes []model.Like
	err := db.
		Scopes(contentTypeScope(kind, contentType, "likes.content_id")).
		Preload("Content").
		Preload("AudioFile.File").
		Where("likes.member_id = ?", p.UserID).
		Order("likes.created_at DESC").
		Find(&likes).
		Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(likes))
	for i, l := range likes {
		ids[i] = l.ContentID
	}

	names, err := artists(db, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]LikeView, len(likes))
	for i, l := range likes {
		file, err := s.uploader.URL(ctx, l.AudioFile.File)
		if err != nil {
			return nil, err
		}

		art, err := s.artwork(ctx, &l.Content)
		if err != nil {
			return nil, err
		}

		out[i] = LikeView{
			LikeID:     l.ID,
			ContentID:  l.ContentID,
			FileID:     l.AudioFileID,
			FileURL:    file,
			Title:      l.Content.Title,
			Artist:     names[l.ContentID],
			ArtworkURL: art,
			CreatedAgo: util.HumanizeSince(l.CreatedAt, now),
		}
		if l.AudioFile.File != nil {
			out[i].FileName = l.AudioFile.File.Name
		}
	}

	return out, nil
}

// Download records that p downloaded a whole item or a single file of it
// and returns links to the files. Repeating a download is free: counters
// only move for rows created by this call.
func (s *LibraryService) Download(ctx context.Context, p security.Principal, kind model.Kind, ref FileRef, whole bool) (*DownloadResult, error) {
	if err := member(p); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var (
		item  *model.ContentItem
		files []model.AudioFile
	)

	if whole {
		var err error
		if ref.ContentID == 0 {
			return nil, badRequest("%s is required.", field(kind, "id"))
		}

		item, err = approvedContent(db, kind, ref.ContentID)
		if err != nil {
			return nil, err
		}

		err = db.
			Preload("File").
			Where("audio_files.status = ?", workflow.FileApproved).
			Where("audio_files.id IN (?)", db.Table("content_audio_files").Select("audio_file_id").Where("content_item_id = ?", item.ID)).
			Order("audio_files.id ASC").
			Find(&files).
			Error
		if err != nil {
			return nil, err
		}

		if len(files) == 0 {
			return nil, badRequest("%s has no approved files.", kind)
		}
	} else {
		it, af, err := approvedFile(db, kind, ref)
		if err != nil {
			return nil, err
		}

		item = it
		files = []model.AudioFile{*af}
	}

	var dl model.Download

	err := db.Transaction(func(tx *gorm.DB) error {
		dl = model.Download{MemberID: p.UserID, ContentID: item.ID}

		res := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&dl)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 1 {
			err := tx.
				Model(&model.ContentItem{}).
				Where("id = ?", item.ID).
				UpdateColumn("downloads_count", gorm.Expr("downloads_count + 1")).
				Error
			if err != nil {
				return err
			}
		} else {
			err := tx.
				Where("member_id = ? AND content_id = ?", p.UserID, item.ID).
				First(&dl).
				Error
			if err != nil {
				return err
			}
		}

		for _, af := range files {
			df := model.DownloadFile{DownloadID: dl.ID, AudioFileID: af.ID}

			res := tx.
				Clauses(clause.OnConflict{DoNothing: true}).
				Omit(clause.Associations).
				Create(&df)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			err := tx.
				Model(&model.AudioFile{}).
				Where("id = ?", af.ID).
				UpdateColumn("downloads_count", gorm.Expr("downloads_count + 1")).
				Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Content downloaded",
		zap.String("kind", string(kind)),
		zap.Uint("contentID", item.ID),
		zap.String("userID", p.UserID),
		zap.Int("files", len(files)),
	)

	out := &DownloadResult{DownloadID: dl.ID, Files: make([]FileLink, len(files))}
	for i, af := range files {
		url, err := s.uploader.URL(ctx, af.File)
		if err != nil {
			return nil, err
		}

		out.Files[i] = FileLink{AudioFileID: af.ID, URL: url}
		if af.File != nil {
			out.Files[i].FileName = af.File.Name
		}
	}

	return out, nil
}

func (s *LibraryService) Downloads(ctx context.Context, p security.Principal, kind model.Kind, contentType string) ([]DownloadView, error) {
	if err := member(p); err != nil {
		return nil, err
	}
	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var downloads []model.Download
	err := db.
		Scopes(contentTypeScope(kind, contentType, "downloads.content_id")).
		Preload("Content").
		Where("downloads.member_id = ?", p.UserID).
		Order("downloads.created_at DESC").
		Find(&downloads).
		Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(downloads))
	for i, d := range downloads {
		ids[i] = d.ContentID
	}

	names, err := artists(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]DownloadView, len(downloads))
	for i, d := range downloads {
		art, err := s.artwork(ctx, &d.Content)
		if err != nil {
			return nil, err
		}

		out[i] = DownloadView{
			ID:         d.ID,
			ContentID:  d.ContentID,
			Title:      d.Content.Title,
			Artist:     names[d.ContentID],
			ArtworkURL: art,
		}
	}

	return out, nil
}

// DownloadFiles lists the files fetched as part of one download
func (s *LibraryService) DownloadFiles(ctx context.Context, p security.Principal, kind model.Kind, downloadID uint) ([]DownloadFileView, error) {
	if err := member(p); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var dl model.Download
	err := db.
		Scopes(contentTypeScope(kind, "", "downloads.content_id")).
		Preload("Content").
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("download_files.created_at DESC")
		}).
		Preload("Files.AudioFile.File").
		Where("downloads.id = ? AND downloads.member_id = ?", downloadID, p.UserID).
		First(&dl).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("download not found.")
	}
	if err != nil {
		return nil, err
	}

	names, err := artists(db, []uint{dl.ContentID})
	if err != nil {
		return nil, err
	}

	art, err := s.artwork(ctx, &dl.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]DownloadFileView, len(dl.Files))
	for i, f := range dl.Files {
		url, err := s.uploader.URL(ctx, f.AudioFile.File)
		if err != nil {
			return nil, err
		}

		out[i] = DownloadFileView{
			DownloadID:  dl.ID,
			AudioFileID: f.AudioFileID,
			FileURL:     url,
			Title:       dl.Content.Title,
			Artist:      names[dl.ContentID],
			ArtworkURL:  art,
			CreatedAgo:  util.HumanizeSince(f.CreatedAt, now),
		}
		if f.AudioFile.File != nil {
			out[i].FileName = f.AudioFile.File.Name
		}
	}

	return out, nil
}

func (s *LibraryService) CreateCollection(ctx context.Context, p security.Principal, kind model.Kind, name, description string) (*model.Collection, error) {
	if err := member(p); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("name is required.")
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, badRequest("description is required.")
	}

	c := model.Collection{
		MemberID:    p.UserID,
		Kind:        kind,
		Name:        name,
		Description: description,
	}

	res := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, badRequest("collection already exists")
	}

	return &c, nil
}

func (s *LibraryService) Collections(ctx context.Context, p security.Principal, kind model.Kind) ([]model.Collection, error) {
	if err := member(p); err != nil {
		return nil, err
	}

	var out []model.Collection
	err := s.db.
		WithContext(ctx).
		Where("member_id = ? AND kind = ?", p.UserID, kind).
		Order("created_at DESC").
		Find(&out).
		Error

	return out, err
}

func (s *LibraryService) CollectionDropdown(ctx context.Context, p security.Principal, kind model.Kind) ([]CollectionOption, error) {
	if err := member(p); err != nil {
		return nil, err
	}

	var out []CollectionOption
	err := s.db.
		WithContext(ctx).
		Model(&model.Collection{}).
		Select("id, name").
		Where("member_id = ? AND kind = ?", p.UserID, kind).
		Order("name ASC").
		Scan(&out).
		Error

	return out, err
}

func (s *LibraryService) DeleteCollection(ctx context.Context, p security.Principal, kind model.Kind, id uint) error {
	if err := member(p); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("id = ? AND member_id = ? AND kind = ?", id, p.UserID, kind).
			Delete(&model.Collection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("collection not found")
		}

		return tx.
			Where("collection_id = ?", id).
			Delete(&model.CollectionFile{}).
			Error
	})
}

// AddToCollection puts an approved file into one of p's collections. Adding
// the same file twice is a no-op.
func (s *LibraryService) AddToCollection(ctx context.Context, p security.Principal, kind model.Kind, in CollectionFileInput) (*model.CollectionFile, error) {
	if err := member(p); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.CollectionName) == "" {
		return nil, badRequest("collection_name is required.")
	}
	if in.CollectionID == 0 {
		return nil, badRequest("collection_id is required.")
	}

	db := s.db.WithContext(ctx)

	_, af, err := approvedFile(db, kind, in.FileRef)
	if err != nil {
		return nil, err
	}

	collection, err := first[model.Collection](db, badRequest("collection not found"), "id = ? AND name = ? AND member_id = ? AND kind = ?", in.CollectionID, in.CollectionName, p.UserID, kind)
	if err != nil {
		return nil, err
	}

	cf := model.CollectionFile{
		CollectionID: collection.ID,
		ContentID:    in.ContentID,
		AudioFileID:  af.ID,
	}

	err = db.
		Omit(clause.Associations).
		Where(model.CollectionFile{CollectionID: cf.CollectionID, AudioFileID: cf.AudioFileID}).
		FirstOrCreate(&cf).
		Error
	if err != nil {
		return nil, err
	}

	return &cf, nil
}

func (s *LibraryService) RemoveFromCollection(ctx context.Context, p security.Principal, kind model.Kind, in CollectionFileInput) error {
	if err := member(p); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	owned := db.
		Model(&model.Collection{}).
		Select("id").
		Where("id = ? AND member_id = ? AND kind = ?", in.CollectionID, p.UserID, kind)

	res := db.
		Where("collection_id IN (?) AND content_id = ? AND audio_file_id = ?", owned, in.ContentID, in.AudioFileID).
		Delete(&model.CollectionFile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return badRequest("file not found in given collection")
	}

	return nil
}

// CollectionFiles returns p's collections with their files, grouped per
// collection
func (s *LibraryService) CollectionFiles(ctx context.Context, p security.Principal, kind model.Kind, contentType string) ([]CollectionGroup, error) {
	if err := member(p); err != nil {
		return nil, err
	}
	if err := validType(kind, contentType); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var collections []model.Collection
	err := db.
		Where("member_id = ? AND kind = ?", p.UserID, kind).
		Order("created_at DESC").
		Find(&collections).
		Error
	if err != nil {
		return nil, err
	}

	groups := make([]CollectionGroup, len(collections))
	index := make(map[uint]int, len(collections))
	ids := make([]uint, len(collections))
	for i, c := range collections {
		groups[i] = CollectionGroup{CollectionID: c.ID, Name: c.Name, Files: []CollectionFileView{}}
		index[c.ID] = i
		ids[i] = c.ID
	}

	if len(ids) == 0 {
		return groups, nil
	}

	var files []model.CollectionFile
	err = db.
		Scopes(contentTypeScope(kind, contentType, "collection_files.content_id")).
		Preload("Content").
		Preload("AudioFile.File").
		Where("collection_files.collection_id IN ?", ids).
		Order("collection_files.created_at DESC").
		Find(&files).
		Error
	if err != nil {
		return nil, err
	}

	contentIDs := make([]uint, len(files))
	for i, f := range files {
		contentIDs[i] = f.ContentID
	}

	names, err := artists(db, contentIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, f := range files {
		url, err := s.uploader.URL(ctx, f.AudioFile.File)
		if err != nil {
			return nil, err
		}

		art, err := s.artwork(ctx, &f.Content)
		if err != nil {
			return nil, err
		}

		view := CollectionFileView{
			ContentID:   f.ContentID,
			AudioFileID: f.AudioFileID,
			FileURL:     url,
			Title:       f.Content.Title,
			Artist:      names[f.ContentID],
			ArtworkURL:  art,
			CreatedAgo:  util.HumanizeSince(f.CreatedAt, now),
		}
		if f.AudioFile.File != nil {
			view.FileName = f.AudioFile.File.Name
		}

		g := &groups[index[f.CollectionID]]
		g.Files = append(g.Files, view)
	}

	return groups, nil
}
