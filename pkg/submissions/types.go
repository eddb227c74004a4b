// Package submissions models data submissions: batches of metadata and data
// files uploaded against an approved study and validated before release.
package submissions

import "time"

// Status is the lifecycle state of a data submission
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusSubmitted  Status = "Submitted"
	StatusReleased   Status = "Released"
	StatusWithdrawn  Status = "Withdrawn"
	StatusRejected   Status = "Rejected"
	StatusCompleted  Status = "Completed"
	StatusCanceled   Status = "Canceled"
	StatusDeleted    Status = "Deleted"
)

// AllStatuses returns every known submission status in workflow order
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusInProgress,
		StatusSubmitted,
		StatusReleased,
		StatusWithdrawn,
		StatusRejected,
		StatusCompleted,
		StatusCanceled,
		StatusDeleted,
	}
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// ValidationStatus is the state of one validation track (metadata, files,
// or cross-submission checks). A nil *ValidationStatus on a Submission means
// the track has never been run because nothing was uploaded for it.
type ValidationStatus string

const (
	ValidationNew        ValidationStatus = "New"
	ValidationValidating ValidationStatus = "Validating"
	ValidationPassed     ValidationStatus = "Passed"
	ValidationError      ValidationStatus = "Error"
	ValidationWarning    ValidationStatus = "Warning"
)

// CollaboratorPermission is the access level of a submission collaborator
type CollaboratorPermission string

const (
	CollaboratorCanView CollaboratorPermission = "Can View"
	CollaboratorCanEdit CollaboratorPermission = "Can Edit"
)

// Collaborator is a user the submitter shared the submission with
type Collaborator struct {
	CollaboratorID   string                 `json:"collaboratorID"`
	CollaboratorName string                 `json:"collaboratorName"`
	Permission       CollaboratorPermission `json:"permission"`
}

// Submission is a data submission
type Submission struct {
	ID                       string            `json:"_id"`
	Name                     string            `json:"name"`
	Status                   Status            `json:"status"`
	SubmitterID              string            `json:"submitterID"`
	SubmitterName            string            `json:"submitterName"`
	DataCommons              string            `json:"dataCommons"`
	StudyID                  string            `json:"studyID"`
	StudyAbbreviation        string            `json:"studyAbbreviation"`
	Collaborators            []Collaborator    `json:"collaborators,omitempty"`
	MetadataValidationStatus *ValidationStatus `json:"metadataValidationStatus"`
	FileValidationStatus     *ValidationStatus `json:"fileValidationStatus"`
	CrossSubmissionStatus    *ValidationStatus `json:"crossSubmissionStatus"`
	CreatedAt                time.Time         `json:"createdAt"`
	UpdatedAt                time.Time         `json:"updatedAt"`
}

// IsSubmitter reports whether userID created the submission
func (s *Submission) IsSubmitter(userID string) bool {
	if s == nil || userID == "" {
		return false
	}
	return s.SubmitterID == userID
}

// CanCollaboratorEdit reports whether userID is a collaborator with edit rights
func (s *Submission) CanCollaboratorEdit(userID string) bool {
	if s == nil || userID == "" {
		return false
	}
	for _, c := range s.Collaborators {
		if c.CollaboratorID == userID && c.Permission == CollaboratorCanEdit {
			return true
		}
	}
	return false
}

// StatusPtr returns a pointer to v, for building submissions in code and tests
func StatusPtr(v ValidationStatus) *ValidationStatus {
	return &v
}
