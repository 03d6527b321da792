package reports

import (
	"fmt"
	"math"
	"strings"
)

// MissingUserPolicy decides what happens to results without a user.
type MissingUserPolicy string

const (
	// SkipMissingUsers drops such rows and counts them.
	SkipMissingUsers MissingUserPolicy = "skip"
	// RejectMissingUsers fails the whole aggregation.
	RejectMissingUsers MissingUserPolicy = "reject"
	// GroupMissingUsers collects them under one unattributed summary.
	GroupMissingUsers MissingUserPolicy = "unattributed"
)

// UnattributedName labels the summary built by GroupMissingUsers.
const UnattributedName = "Unattributed"

// ParseMissingUserPolicy validates a configured policy name.
func ParseMissingUserPolicy(raw string) (MissingUserPolicy, error) {
	switch p := MissingUserPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return SkipMissingUsers, nil
	case SkipMissingUsers, RejectMissingUsers, GroupMissingUsers:
		return p, nil
	default:
		return "", fmt.Errorf("reports: unknown missing user policy %q", raw)
	}
}

type accumulator struct {
	summary UserPerformance
	total   float64
}

func (a *accumulator) add(r ExamResult) {
	a.summary.TotalExams++
	a.total += r.Percentage
	if r.Passed {
		a.summary.PassedExams++
	} else {
		a.summary.FailedExams++
	}
}

func (a *accumulator) finish() UserPerformance {
	out := a.summary
	if out.TotalExams > 0 {
		out.AverageScore = roundHalfUp(a.total / float64(out.TotalExams))
	}
	return out
}

// Aggregate groups results by user in first-seen order. It returns the
// summaries and the number of rows dropped by SkipMissingUsers.
func Aggregate(results []ExamResult, policy MissingUserPolicy) ([]UserPerformance, int, error) {
	if policy == "" {
		policy = SkipMissingUsers
	}
	order := make([]string, 0)
	byUser := make(map[string]*accumulator)
	var orphans *accumulator
	skipped := 0

	for i, r := range results {
		id := r.UserID()
		if id == "" {
			switch policy {
			case RejectMissingUsers:
				return nil, 0, fmt.Errorf("%w: row %d (result %q)", ErrMissingUser, i, r.ID)
			case GroupMissingUsers:
				if orphans == nil {
					orphans = &accumulator{summary: UserPerformance{Name: UnattributedName}}
				}
				orphans.add(r)
			default:
				skipped++
			}
			continue
		}
		acc, ok := byUser[id]
		if !ok {
			acc = &accumulator{summary: UserPerformance{UserID: id}}
			byUser[id] = acc
			order = append(order, id)
		}
		if acc.summary.Name == "" {
			acc.summary.Name = r.User.Name
		}
		if acc.summary.Email == "" {
			acc.summary.Email = r.User.Email
		}
		acc.add(r)
	}

	out := make([]UserPerformance, 0, len(order)+1)
	for _, id := range order {
		out = append(out, byUser[id].finish())
	}
	if orphans != nil {
		out = append(out, orphans.finish())
	}
	return out, skipped, nil
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
