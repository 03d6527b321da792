package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ErrMissingUser is returned by the reject policy for rows without a user.
var ErrMissingUser = errors.New("reports: exam result without user")

// UserRef is the user reference on an exam result. The backend sends
// either a bare id, a populated user document or null.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts a string id or a user object.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &u.ID)
	}
	type plain struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	u.ID, u.Name, u.Email = p.ID, p.Name, p.Email
	if u.ID == "" {
		u.ID = p.AltID
	}
	return nil
}

// ExamRef identifies the exam a result belongs to.
type ExamRef struct {
	ID    string `json:"_id"`
	Title string `json:"title,omitempty"`
}

// UnmarshalJSON accepts a string id or an exam object.
func (e *ExamRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.ID)
	}
	type plain struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Title string `json:"title"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	e.ID, e.Title = p.ID, p.Title
	if e.ID == "" {
		e.ID = p.AltID
	}
	return nil
}

// ExamResult is a single submission as returned by the backend.
type ExamResult struct {
	ID          string    `json:"_id"`
	User        *UserRef  `json:"user"`
	Exam        ExamRef   `json:"exam"`
	Score       float64   `json:"score"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// UserID returns the referenced user id or "" when unresolvable.
func (r ExamResult) UserID() string {
	if r.User == nil {
		return ""
	}
	return r.User.ID
}

// ExamStatistics is the per-exam aggregate computed by the backend.
type ExamStatistics struct {
	ExamID            string  `json:"examId"`
	ExamTitle         string  `json:"examTitle"`
	TotalParticipants int     `json:"totalParticipants"`
	AverageScore      float64 `json:"averageScore"`
	PassRate          float64 `json:"passRate"`
	HighestScore      float64 `json:"highestScore"`
	LowestScore       float64 `json:"lowestScore"`
}

// UserPerformance summarises one user's exam history.
type UserPerformance struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	TotalExams   int    `json:"totalExams"`
	AverageScore int    `json:"averageScore"`
	PassedExams  int    `json:"passedExams"`
	FailedExams  int    `json:"failedExams"`
}

// Overview is everything the admin report screens and exports need.
type Overview struct {
	Statistics  []ExamStatistics  `json:"statistics"`
	Results     []ExamResult      `json:"results"`
	Users       []UserPerformance `json:"users"`
	Skipped     int               `json:"skipped"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Empty reports whether there is nothing to export.
func (o Overview) Empty() bool {
	return len(o.Statistics) == 0 && len(o.Results) == 0
}
