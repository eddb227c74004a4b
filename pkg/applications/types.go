// Package applications models submission requests: the forms researchers file
// to get a study approved before any data can be uploaded.
package applications

import "time"

// Status is the lifecycle state of a submission request
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusSubmitted  Status = "Submitted"
	StatusInReview   Status = "In Review"
	StatusInquired   Status = "Inquired"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
	StatusCanceled   Status = "Canceled"
	StatusDeleted    Status = "Deleted"
)

// AllStatuses returns every known status in workflow order
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusInProgress,
		StatusSubmitted,
		StatusInReview,
		StatusInquired,
		StatusApproved,
		StatusRejected,
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

// Applicant identifies the user who filed the request
type Applicant struct {
	ApplicantID    string `json:"applicantID"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
}

// Application is a submission request
type Application struct {
	ID                string     `json:"_id"`
	Status            Status     `json:"status"`
	Applicant         *Applicant `json:"applicant,omitempty"`
	ProgramName       string     `json:"programName"`
	StudyName         string     `json:"studyName"`
	StudyAbbreviation string     `json:"studyAbbreviation"`
	ReviewComment     string     `json:"reviewComment,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	SubmittedDate     *time.Time `json:"submittedDate,omitempty"`
}

// ApplicantID returns the owning user's ID, or "" when the applicant is unknown
func (a *Application) ApplicantID() string {
	if a == nil || a.Applicant == nil {
		return ""
	}
	return a.Applicant.ApplicantID
}

// IsOwnedBy reports whether userID filed the application.
// An empty userID never owns anything.
func (a *Application) IsOwnedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return a.ApplicantID() == userID
}
