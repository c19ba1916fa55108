package workflow

type FileStatus string

const (
	FileUploaded FileStatus = "Uploaded"
	FileRevise   FileStatus = "Revise"
	FileRevised  FileStatus = "Revised"
	FileApproved FileStatus = "Approved"
	FileRejected FileStatus = "Rejected"
)

type FileEvent string

const (
	FileEventRevise  FileEvent = "revise"
	FileEventResolve FileEvent = "resolve"
	FileEventApprove FileEvent = "approve"
	FileEventReject  FileEvent = "reject"
)

// File is the per audio file review machine. A resolve is only accepted for
// files that staff explicitly sent back for revision.
var File = NewMachine("file", map[FileStatus]map[FileEvent]FileStatus{
	FileUploaded: {
		FileEventRevise:  FileRevise,
		FileEventApprove: FileApproved,
		FileEventReject:  FileRejected,
	},
	FileRevise: {
		FileEventResolve: FileRevised,
	},
	FileRevised: {
		FileEventRevise:  FileRevise,
		FileEventApprove: FileApproved,
		FileEventReject:  FileRejected,
	},
})
