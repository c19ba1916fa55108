package workflow

type RequestStatus string

const (
	RequestApplied   RequestStatus = "Applied"
	RequestInProcess RequestStatus = "In Process"
	RequestApproved  RequestStatus = "Approved"
	RequestDeclined  RequestStatus = "Declined"
	RequestCompleted RequestStatus = "Completed"
)

var RequestStatuses = []RequestStatus{
	RequestApplied,
	RequestInProcess,
	RequestApproved,
	RequestDeclined,
	RequestCompleted,
}

type RequestEvent string

const (
	RequestEventInterview RequestEvent = "schedule_interview"
	RequestEventApprove   RequestEvent = "approve"
	RequestEventDecline   RequestEvent = "decline"
	RequestEventContract  RequestEvent = "sign_contract"
)

// Request drives supplier onboarding
var Request = NewMachine("request", map[RequestStatus]map[RequestEvent]RequestStatus{
	RequestApplied: {
		RequestEventInterview: RequestInProcess,
	},
	RequestInProcess: {
		RequestEventInterview: RequestInProcess,
		RequestEventApprove:   RequestApproved,
		RequestEventDecline:   RequestDeclined,
	},
	RequestApproved: {
		RequestEventContract: RequestCompleted,
	},
})
