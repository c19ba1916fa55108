package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    SubmissionStatus
		event   SubmissionEvent
		want    SubmissionStatus
		wantErr bool
	}{
		{"revise from uploaded", SubmissionUploaded, EventReviseFile, SubmissionProcess, false},
		{"approve file from uploaded", SubmissionUploaded, EventApproveFile, SubmissionProcess, false},
		{"reject file from process", SubmissionProcess, EventRejectFile, SubmissionProcess, false},
		{"resolve in process", SubmissionProcess, EventResolveRevision, SubmissionProcess, false},
		{"submit from uploaded", SubmissionUploaded, EventSubmitForReview, SubmissionSubmitted, false},
		{"submit from process", SubmissionProcess, EventSubmitForReview, SubmissionSubmitted, false},
		{"approve submitted", SubmissionSubmitted, EventApprove, SubmissionApproved, false},
		{"reject submitted", SubmissionSubmitted, EventReject, SubmissionRejected, false},
		{"approve uploaded", SubmissionUploaded, EventApprove, SubmissionUploaded, true},
		{"reject process", SubmissionProcess, EventReject, SubmissionProcess, true},
		{"revise submitted", SubmissionSubmitted, EventReviseFile, SubmissionSubmitted, true},
		{"submit twice", SubmissionSubmitted, EventSubmitForReview, SubmissionSubmitted, true},
		{"approved is terminal", SubmissionApproved, EventReject, SubmissionApproved, true},
		{"rejected is terminal", SubmissionRejected, EventApprove, SubmissionRejected, true},
		{"resolve before any revision", SubmissionUploaded, EventResolveRevision, SubmissionUploaded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Submission.Next(tt.from, tt.event)
			assert.Equal(t, tt.want, got)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrIllegalTransition))
				assert.False(t, Submission.Can(tt.from, tt.event))
				return
			}

			require.NoError(t, err)
			assert.True(t, Submission.Can(tt.from, tt.event))
		})
	}
}

func TestFileTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    FileStatus
		event   FileEvent
		want    FileStatus
		wantErr bool
	}{
		{"revise uploaded", FileUploaded, FileEventRevise, FileRevise, false},
		{"resolve revise", FileRevise, FileEventResolve, FileRevised, false},
		{"approve revised", FileRevised, FileEventApprove, FileApproved, false},
		{"reject uploaded", FileUploaded, FileEventReject, FileRejected, false},
		{"revise revised again", FileRevised, FileEventRevise, FileRevise, false},
		{"resolve uploaded", FileUploaded, FileEventResolve, FileUploaded, true},
		{"approve while revise", FileRevise, FileEventApprove, FileRevise, true},
		{"approve approved", FileApproved, FileEventApprove, FileApproved, true},
		{"revise rejected", FileRejected, FileEventRevise, FileRejected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := File.Next(tt.from, tt.event)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestRequestTransitions(t *testing.T) {
	s, err := Request.Next(RequestApplied, RequestEventInterview)
	require.NoError(t, err)
	assert.Equal(t, RequestInProcess, s)

	s, err = Request.Next(s, RequestEventApprove)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, s)

	s, err = Request.Next(s, RequestEventContract)
	require.NoError(t, err)
	assert.Equal(t, RequestCompleted, s)

	_, err = Request.Next(RequestApplied, RequestEventApprove)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = Request.Next(RequestDeclined, RequestEventContract)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionErrorMessage(t *testing.T) {
	_, err := Submission.Next(SubmissionApproved, EventReviseFile)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "cannot revise_file while submission is Approved", err.Error())
}

func TestAccepting(t *testing.T) {
	states := Submission.Accepting(EventSubmitForReview)
	assert.ElementsMatch(t, []SubmissionStatus{SubmissionUploaded, SubmissionProcess}, states)

	assert.ElementsMatch(t, []FileStatus{FileRevise}, File.Accepting(FileEventResolve))
}
