package service

import (
	"context"
	"net/http"
	"testing"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSubmission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)
	createUser(t, e.db, "staff_b", model.RoleStaff)
	createUser(t, e.db, "staff_a", model.RoleStaff)

	sub, err := e.submissions.Create(ctx, supplier, model.KindBeat, beatInput("Midnight"))
	require.NoError(t, err)

	assert.Equal(t, workflow.SubmissionUploaded, sub.Status)
	assert.Equal(t, model.KindBeat, sub.Kind)
	assert.Equal(t, "Beat", sub.ContentType)
	require.NotNil(t, sub.ApprovalPersonID)
	assert.Equal(t, "staff_a", *sub.ApprovalPersonID)

	var item model.ContentItem
	require.NoError(t, e.db.Preload("Moods").Preload("AudioFiles").Preload("DemoFile.File").First(&item, sub.ContentID).Error)
	assert.Len(t, item.Moods, 3)
	assert.Len(t, item.AudioFiles, 1)
	require.NotNil(t, item.DemoFile)
	assert.Equal(t, "demo", item.DemoFile.File.Name)
	assert.Equal(t, workflow.FileUploaded, item.AudioFiles[0].Status)

	// demo, one audio file and the artwork
	assert.Len(t, e.store.keys(), 3)

	// the next submission goes to the other reviewer
	next, err := e.submissions.Create(ctx, supplier, model.KindBeat, beatInput("Sunrise"))
	require.NoError(t, err)
	require.NotNil(t, next.ApprovalPersonID)
	assert.Equal(t, "staff_b", *next.ApprovalPersonID)
}

func TestCreateSubmissionValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)
	member := createUser(t, e.db, "member", model.RoleMember)

	_, err := e.submissions.Create(ctx, supplier, model.KindBeat, beatInput("Taken"))
	require.NoError(t, err)
	before := len(e.store.keys())

	tests := []struct {
		name   string
		modify func(*CreateSubmission)
		want   string
	}{
		{"missing title", func(in *CreateSubmission) { in.Title = " " }, "beat_title is required"},
		{"invalid type", func(in *CreateSubmission) { in.Type = "Sample" }, "invalid beat_type"},
		{"duplicate title", func(in *CreateSubmission) { in.Title = "Taken" }, "beat_title already exists"},
		{"no demo", func(in *CreateSubmission) { in.Demo.Upload = Upload{} }, "beat_demo is required"},
		{"no artwork", func(in *CreateSubmission) { in.Artwork = Upload{} }, "beat_artwork_file is required"},
		{"two moods", func(in *CreateSubmission) { in.Moods = in.Moods[:2] }, "beat_mood must be 3"},
		{"repeated mood", func(in *CreateSubmission) { in.Moods = []string{"Dark", "Dark", "Chill"} }, "beat_mood must be 3"},
		{"unknown mood", func(in *CreateSubmission) { in.Moods = []string{"Dark", "Chill", "Angry"} }, "provide valid moods"},
		{"unknown genre", func(in *CreateSubmission) { in.Genre = "Polka" }, "beat_genre does not exist"},
		{"sub genre of other genre", func(in *CreateSubmission) { in.SubGenre = "Deep House" }, "beat_sub_genre does not exist"},
		{"no audio files", func(in *CreateSubmission) { in.Files = nil }, "beat_audio_files is required"},
		{"file without name", func(in *CreateSubmission) { in.Files[0].Name = "" }, "file_name is required"},
		{"bpm start above end", func(in *CreateSubmission) { in.Files[0].BPMStart = "120" }, "file_bpm_start_value should be less than file_bpm_end_value"},
		{"exact bpm mismatch", func(in *CreateSubmission) { in.Files[0].BPMType = "Exact" }, "file_bpm_start_value should be equal to file_bpm_end_value in exact range case"},
		{"negative bpm", func(in *CreateSubmission) { in.Files[0].BPMStart = "-10" }, "file_bpm_start_value or file_bpm_end_value cannot be zero"},
		{"sharp key as flat", func(in *CreateSubmission) { in.Files[0].Key = "G#" }, "given key is not flat"},
		{"invalid instrument", func(in *CreateSubmission) { in.Files[0].Instrument = "Flute" }, "invalid instrument"},
		{"sub instrument of other instrument", func(in *CreateSubmission) { in.Files[0].SubInstrument = "Kick" }, "invalid sub_instrument under Keys"},
		{"image as audio", func(in *CreateSubmission) { in.Files[0].Upload = upload("full.mp3", pngBytes) }, "full.mp3: unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := beatInput("Fresh")
			in.Files = []FileInput{fileInput("full")}
			tt.modify(&in)

			_, err := e.submissions.Create(ctx, supplier, model.KindBeat, in)
			requireCode(t, err, http.StatusBadRequest)
			assert.Contains(t, err.Error(), tt.want)

			assert.Len(t, e.store.keys(), before, "uploads must be rolled back")
		})
	}

	t.Run("members cannot submit", func(t *testing.T) {
		_, err := e.submissions.Create(ctx, member, model.KindBeat, beatInput("Fresh"))
		requireCode(t, err, http.StatusForbidden)
	})
}

func TestCreateSubmissionRollsBackUploads(t *testing.T) {
	e := newEnv(t)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	e.store.failPut = true
	_, err := e.submissions.Create(context.Background(), supplier, model.KindBeat, beatInput("Midnight"))
	require.Error(t, err)

	var n int64
	require.NoError(t, e.db.Model(&model.Submission{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, e.store.keys())
}

func TestSubmissionListScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	admin := createUser(t, e.db, "admin", model.RoleAdmin)
	staff := createUser(t, e.db, "staff", model.RoleStaff)
	alice := createUser(t, e.db, "alice", model.RoleSupplier)
	bob := createUser(t, e.db, "bob", model.RoleSupplier)
	member := createUser(t, e.db, "member", model.RoleMember)

	submitBeat(t, e, alice, "One")
	submitBeat(t, e, bob, "Two")

	// the only reviewer is at the ceiling so nobody gets this one
	full := NewSubmissionService(e.db, e.uploader, 1)
	third, err := full.Create(ctx, bob, model.KindBeat, beatInput("Three"))
	require.NoError(t, err)
	assert.Nil(t, third.ApprovalPersonID)

	other := createUser(t, e.db, "other", model.RoleStaff)

	tests := []struct {
		name string
		who  security.Principal
		want int
	}{
		{"admin sees everything", admin, 3},
		{"staff sees assigned and unassigned", staff, 3},
		{"other staff sees only unassigned", other, 1},
		{"supplier sees own", bob, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := e.submissions.List(ctx, tt.who, model.KindBeat, "")
			require.NoError(t, err)
			assert.Len(t, views, tt.want)

			for _, v := range views {
				assert.EqualValues(t, 1, v.FilesCount)
				assert.Equal(t, "just now", v.CreatedAgo)
				assert.NotEmpty(t, v.ArtworkURL)
			}
		})
	}

	_, err = e.submissions.List(ctx, member, model.KindBeat, "")
	requireCode(t, err, http.StatusForbidden)

	_, err = e.submissions.List(ctx, admin, model.KindBeat, "Sample")
	requireCode(t, err, http.StatusBadRequest)

	views, err := e.submissions.List(ctx, admin, model.KindPack, "")
	require.NoError(t, err)
	assert.Empty(t, views)

	// members only see approved content
	_, err = e.submissions.Detail(ctx, member, model.KindBeat, third.ID)
	requireCode(t, err, http.StatusNotFound)

	detail, err := e.submissions.Detail(ctx, bob, model.KindBeat, third.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Content.AudioFiles, 1)
	require.NotNil(t, detail.Content.DemoFile)
}

func TestMidnightScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	admin := createUser(t, e.db, "admin", model.RoleAdmin)
	busy := createUser(t, e.db, "busy", model.RoleStaff)
	staff := createUser(t, e.db, "staff", model.RoleStaff)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)
	member := createUser(t, e.db, "member", model.RoleMember)

	// give busy an open submission so staff is the least loaded
	first, _ := submitBeat(t, e, supplier, "Warmup")
	require.Equal(t, busy.UserID, *first.ApprovalPersonID)

	sub, fileID := submitBeat(t, e, supplier, "Midnight")
	assert.Equal(t, workflow.SubmissionUploaded, sub.Status)
	require.NotNil(t, sub.ApprovalPersonID)
	assert.Equal(t, staff.UserID, *sub.ApprovalPersonID)

	status := func() (workflow.SubmissionStatus, workflow.FileStatus) {
		var s model.Submission
		require.NoError(t, e.db.First(&s, sub.ID).Error)
		var f model.AudioFile
		require.NoError(t, e.db.First(&f, fileID).Error)
		return s.Status, f.Status
	}

	af, err := e.review.ReviseFile(ctx, staff, model.KindBeat, sub.ID, fileID, "the hats are clipping")
	require.NoError(t, err)
	assert.Equal(t, workflow.FileRevise, af.Status)
	s, f := status()
	assert.Equal(t, workflow.SubmissionProcess, s)
	assert.Equal(t, workflow.FileRevise, f)
	assert.Equal(t, 1, e.mail.count())

	oldKeys := e.store.keys()

	var storedBefore int64
	require.NoError(t, e.db.Model(&model.StoredFile{}).Count(&storedBefore).Error)

	fixed := fileInput("full v2")
	fixed.BPMType = "Exact"
	fixed.BPMStart = "85"
	fixed.BPMEnd = "85"
	resolved, err := e.submissions.ResolveRevision(ctx, supplier, model.KindBeat, sub.ID, fileID, fixed)
	require.NoError(t, err)
	assert.Equal(t, workflow.FileRevised, resolved.Status)
	assert.Equal(t, "full v2", resolved.File.Name)
	require.NotNil(t, resolved.BPM)
	assert.Equal(t, model.BPMExact, resolved.BPM.Type)
	assert.Equal(t, 85, resolved.BPM.Start)
	assert.Len(t, e.store.keys(), len(oldKeys), "the replaced object is deleted")
	assert.Len(t, e.store.deleted, 1)

	// the replaced row goes with its object
	var storedKeys []string
	require.NoError(t, e.db.Model(&model.StoredFile{}).Order("object_key").Pluck("object_key", &storedKeys).Error)
	assert.Len(t, storedKeys, int(storedBefore))
	assert.NotContains(t, storedKeys, e.store.deleted[0])
	for _, k := range storedKeys {
		assert.Contains(t, e.store.keys(), k)
	}

	_, err = e.review.ApproveFile(ctx, staff, model.KindBeat, sub.ID, fileID)
	require.NoError(t, err)
	s, f = status()
	assert.Equal(t, workflow.SubmissionProcess, s)
	assert.Equal(t, workflow.FileApproved, f)

	_, err = e.review.SubmitForReview(ctx, staff, model.KindBeat, sub.ID)
	require.NoError(t, err)
	s, _ = status()
	assert.Equal(t, workflow.SubmissionSubmitted, s)

	// nothing is public before the admin decides
	found, err := e.submissions.Discover(ctx, model.KindBeat, "")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = e.review.Approve(ctx, admin, model.KindBeat, sub.ID)
	require.NoError(t, err)
	s, _ = status()
	assert.Equal(t, workflow.SubmissionApproved, s)

	found, err = e.submissions.Discover(ctx, model.KindBeat, "Beat")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Midnight", found[0].Content.Title)

	page, err := e.submissions.Approved(ctx, model.KindBeat, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Count)
	assert.Len(t, page.Results, 1)

	detail, err := e.submissions.Detail(ctx, member, model.KindBeat, sub.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Content.AudioFiles, 1)
}

func TestApprovedPaging(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	admin := createUser(t, e.db, "admin", model.RoleAdmin)
	staff := createUser(t, e.db, "staff", model.RoleStaff)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	for _, title := range []string{"A", "B", "C"} {
		sub, fileID := submitBeat(t, e, supplier, title)
		approveBeat(t, e, staff, admin, sub, fileID)
	}

	page, err := e.submissions.Approved(ctx, model.KindBeat, "", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Count)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, 2, page.Page)

	page, err = e.submissions.Approved(ctx, model.KindBeat, "", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	assert.Len(t, page.Results, 3)
}
