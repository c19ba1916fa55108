package service

import (
	"context"
	"net/http"
	"testing"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRequiresRoles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	staff := createUser(t, e.db, "staff", model.RoleStaff)
	admin := createUser(t, e.db, "admin", model.RoleAdmin)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	sub, fileID := submitBeat(t, e, supplier, "Roles")

	_, err := e.review.ApproveFile(ctx, supplier, model.KindBeat, sub.ID, fileID)
	requireCode(t, err, http.StatusForbidden, "only staff can review submissions")

	_, err = e.review.ApproveFile(ctx, admin, model.KindBeat, sub.ID, fileID)
	requireCode(t, err, http.StatusForbidden)

	_, err = e.review.Approve(ctx, staff, model.KindBeat, sub.ID)
	requireCode(t, err, http.StatusForbidden, "only admins can approve or reject content")

	_, err = e.review.ReviseFile(ctx, staff, model.KindBeat, sub.ID, fileID, "   ")
	requireCode(t, err, http.StatusBadRequest, "message is required")

	// a beat id is not a pack id
	_, err = e.review.ApproveFile(ctx, staff, model.KindPack, sub.ID, fileID)
	requireCode(t, err, http.StatusNotFound, "pack not found!")

	_, err = e.review.ApproveFile(ctx, staff, model.KindBeat, sub.ID, 9999)
	requireCode(t, err, http.StatusNotFound, "file not found!")
}

func TestReviewAssignedToSomeoneElse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	owner := createUser(t, e.db, "a_staff", model.RoleStaff)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	sub, fileID := submitBeat(t, e, supplier, "Taken")
	require.Equal(t, owner.UserID, *sub.ApprovalPersonID)

	other := createUser(t, e.db, "b_staff", model.RoleStaff)

	_, err := e.review.ApproveFile(ctx, other, model.KindBeat, sub.ID, fileID)
	requireCode(t, err, http.StatusNotFound, "beat not found!")

	_, err = e.review.SubmitForReview(ctx, other, model.KindBeat, sub.ID)
	requireCode(t, err, http.StatusNotFound)
}

func TestReviewClaimsUnassigned(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	// no staff exists yet so nobody is assigned
	sub, fileID := submitBeat(t, e, supplier, "Orphan")
	require.Nil(t, sub.ApprovalPersonID)

	first := createUser(t, e.db, "first", model.RoleStaff)
	second := createUser(t, e.db, "second", model.RoleStaff)

	_, err := e.review.ApproveFile(ctx, first, model.KindBeat, sub.ID, fileID)
	require.NoError(t, err)

	var got model.Submission
	require.NoError(t, e.db.First(&got, sub.ID).Error)
	require.NotNil(t, got.ApprovalPersonID)
	assert.Equal(t, first.UserID, *got.ApprovalPersonID)
	assert.Equal(t, workflow.SubmissionProcess, got.Status)

	// the claim makes it invisible to everyone else
	_, err = e.review.SubmitForReview(ctx, second, model.KindBeat, sub.ID)
	requireCode(t, err, http.StatusNotFound)
}

func TestReviewIllegalTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	admin := createUser(t, e.db, "admin", model.RoleAdmin)
	staff := createUser(t, e.db, "staff", model.RoleStaff)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	sub, fileID := submitBeat(t, e, supplier, "Early")

	// admins only decide on submitted content
	_, err := e.review.Approve(ctx, admin, model.KindBeat, sub.ID)
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)

	_, err = e.review.Reject(ctx, admin, model.KindBeat, sub.ID)
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)

	var got model.Submission
	require.NoError(t, e.db.First(&got, sub.ID).Error)
	assert.Equal(t, workflow.SubmissionUploaded, got.Status)

	// only a file in Revise can be resolved
	_, err = e.submissions.ResolveRevision(ctx, supplier, model.KindBeat, sub.ID, fileID, fileInput("again"))
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)
	assert.Empty(t, e.store.deleted)

	_, err = e.review.RejectFile(ctx, staff, model.KindBeat, sub.ID, fileID)
	require.NoError(t, err)

	// a rejected file is final
	_, err = e.review.ApproveFile(ctx, staff, model.KindBeat, sub.ID, fileID)
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)

	var af model.AudioFile
	require.NoError(t, e.db.First(&af, fileID).Error)
	assert.Equal(t, workflow.FileRejected, af.Status)

	_, err = e.review.SubmitForReview(ctx, staff, model.KindBeat, sub.ID)
	require.NoError(t, err)

	// submitted content is out of staff hands
	_, err = e.review.ReviseFile(ctx, staff, model.KindBeat, sub.ID, fileID, "one more thing")
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)

	rejected, err := e.review.Reject(ctx, admin, model.KindBeat, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.SubmissionRejected, rejected.Status)

	_, err = e.review.Approve(ctx, admin, model.KindBeat, sub.ID)
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)
}

func TestResolveRevisionOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	staff := createUser(t, e.db, "staff", model.RoleStaff)
	owner := createUser(t, e.db, "owner", model.RoleSupplier)
	stranger := createUser(t, e.db, "stranger", model.RoleSupplier)

	sub, fileID := submitBeat(t, e, owner, "Mine")

	_, err := e.review.ReviseFile(ctx, staff, model.KindBeat, sub.ID, fileID, "swap the kick")
	require.NoError(t, err)

	_, err = e.submissions.ResolveRevision(ctx, stranger, model.KindBeat, sub.ID, fileID, fileInput("theirs"))
	requireCode(t, err, http.StatusNotFound, "beat not found!")

	_, err = e.submissions.ResolveRevision(ctx, staff, model.KindBeat, sub.ID, fileID, fileInput("staff"))
	requireCode(t, err, http.StatusForbidden)

	bad := fileInput("bad")
	bad.Key = "H"
	_, err = e.submissions.ResolveRevision(ctx, owner, model.KindBeat, sub.ID, fileID, bad)
	requireCode(t, err, http.StatusBadRequest, "Invalid file_key")

	// nothing moved on failure
	var af model.AudioFile
	require.NoError(t, e.db.First(&af, fileID).Error)
	assert.Equal(t, workflow.FileRevise, af.Status)
	assert.Equal(t, "swap the kick", af.Message)
}

func TestReviewMails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	admin := createUser(t, e.db, "admin", model.RoleAdmin)
	staff := createUser(t, e.db, "staff", model.RoleStaff)
	supplier := createUser(t, e.db, "supplier", model.RoleSupplier)

	sub, fileID := submitBeat(t, e, supplier, "Mailed")

	_, err := e.review.ReviseFile(ctx, staff, model.KindBeat, sub.ID, fileID, "louder")
	require.NoError(t, err)

	_, err = e.submissions.ResolveRevision(ctx, supplier, model.KindBeat, sub.ID, fileID, fileInput("louder"))
	require.NoError(t, err)

	approveBeat(t, e, staff, admin, sub, fileID)

	require.Equal(t, 2, e.mail.count())
	for _, m := range e.mail.sent {
		assert.Equal(t, "supplier@example.com", m.To)
	}
}
