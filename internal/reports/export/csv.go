package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/learnhub-academy/learnhub/internal/reports"
)

// SectionWriter writes titled CSV sections separated by blank lines.
// Quoting follows RFC 4180 via encoding/csv.
type SectionWriter struct {
	w        *csv.Writer
	sections int
}

// NewSectionWriter wraps w.
func NewSectionWriter(w io.Writer) *SectionWriter {
	return &SectionWriter{w: csv.NewWriter(w)}
}

// Section writes a title row, a header row and the data rows.
func (s *SectionWriter) Section(title string, header []string, rows [][]string) error {
	if s.sections > 0 {
		if err := s.w.Write([]string{}); err != nil {
			return err
		}
	}
	s.sections++
	if err := s.w.Write([]string{title}); err != nil {
		return err
	}
	if err := s.w.Write(header); err != nil {
		return err
	}
	return s.w.WriteAll(rows)
}

// Flush writes buffered data and reports any write error.
func (s *SectionWriter) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

var (
	statisticsHeader = []string{"Exam", "Participants", "Average Score", "Pass Rate (%)", "Highest Score", "Lowest Score"}
	usersHeader      = []string{"Name", "Email", "Total Exams", "Average Score (%)", "Passed", "Failed"}
	resultsHeader    = []string{"User", "Email", "Exam", "Score", "Percentage", "Status", "Submitted At"}
)

// WriteFullReportCSV serialises the admin overview. It returns ErrNoData
// without writing anything when there are neither statistics nor results.
func WriteFullReportCSV(w io.Writer, ov reports.Overview) error {
	if ov.Empty() {
		return ErrNoData
	}
	sw := NewSectionWriter(w)

	stats := make([][]string, 0, len(ov.Statistics))
	for _, st := range ov.Statistics {
		stats = append(stats, []string{
			st.ExamTitle,
			strconv.Itoa(st.TotalParticipants),
			plainNumber(st.AverageScore),
			plainNumber(st.PassRate),
			plainNumber(st.HighestScore),
			plainNumber(st.LowestScore),
		})
	}
	if err := sw.Section("Exam Statistics", statisticsHeader, stats); err != nil {
		return err
	}

	if err := sw.Section("User Performance", usersHeader, userRows(ov.Users, strconv.Itoa)); err != nil {
		return err
	}

	results := make([][]string, 0, len(ov.Results))
	for _, r := range ov.Results {
		results = append(results, []string{
			resultUserName(r),
			resultUserEmail(r),
			examTitle(r.Exam),
			plainNumber(r.Score),
			plainNumber(r.Percentage),
			passLabel(r.Passed),
			formatTime(r.SubmittedAt),
		})
	}
	if err := sw.Section("Exam Results", resultsHeader, results); err != nil {
		return err
	}
	return sw.Flush()
}

func userRows(users []reports.UserPerformance, count func(int) string) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.Name,
			u.Email,
			count(u.TotalExams),
			count(u.AverageScore),
			count(u.PassedExams),
			count(u.FailedExams),
		})
	}
	return rows
}

func resultUserName(r reports.ExamResult) string {
	if r.User == nil {
		return ""
	}
	if r.User.Name != "" {
		return r.User.Name
	}
	return r.User.ID
}

func resultUserEmail(r reports.ExamResult) string {
	if r.User == nil {
		return ""
	}
	return r.User.Email
}

func examTitle(e reports.ExamRef) string {
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}
