package workflow

type SubmissionStatus string

const (
	SubmissionUploaded  SubmissionStatus = "Uploaded"
	SubmissionProcess   SubmissionStatus = "Process"
	SubmissionSubmitted SubmissionStatus = "Submitted"
	SubmissionApproved  SubmissionStatus = "Approved"
	SubmissionRejected  SubmissionStatus = "Rejected"
)

var SubmissionStatuses = []SubmissionStatus{
	SubmissionUploaded,
	SubmissionProcess,
	SubmissionSubmitted,
	SubmissionApproved,
	SubmissionRejected,
}

type SubmissionEvent string

const (
	EventReviseFile      SubmissionEvent = "revise_file"
	EventApproveFile     SubmissionEvent = "approve_file"
	EventRejectFile      SubmissionEvent = "reject_file"
	EventResolveRevision SubmissionEvent = "resolve_revision"
	EventSubmitForReview SubmissionEvent = "submit_for_review"
	EventApprove         SubmissionEvent = "approve"
	EventReject          SubmissionEvent = "reject"
)

// Submission moves a content submission from upload to a final decision.
// Any staff action on a file drags the whole submission into Process.
var Submission = NewMachine("submission", map[SubmissionStatus]map[SubmissionEvent]SubmissionStatus{
	SubmissionUploaded: {
		EventReviseFile:      SubmissionProcess,
		EventApproveFile:     SubmissionProcess,
		EventRejectFile:      SubmissionProcess,
		EventSubmitForReview: SubmissionSubmitted,
	},
	SubmissionProcess: {
		EventReviseFile:      SubmissionProcess,
		EventApproveFile:     SubmissionProcess,
		EventRejectFile:      SubmissionProcess,
		EventResolveRevision: SubmissionProcess,
		EventSubmitForReview: SubmissionSubmitted,
	},
	SubmissionSubmitted: {
		EventApprove: SubmissionApproved,
		EventReject:  SubmissionRejected,
	},
})
