package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(user string, pct float64, passed bool) ExamResult {
	r := ExamResult{Percentage: pct, Passed: passed}
	if user != "" {
		r.User = &UserRef{ID: user, Name: "name-" + user}
	}
	return r
}

func TestAggregateAverageRounding(t *testing.T) {
	users, skipped, err := Aggregate([]ExamResult{
		result("u1", 80, true),
		result("u1", 90, true),
	}, SkipMissingUsers)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, users, 1)
	assert.Equal(t, 85, users[0].AverageScore)
	assert.Equal(t, 2, users[0].TotalExams)
	assert.Equal(t, "name-u1", users[0].Name)
}

func TestAggregateRoundsHalfUp(t *testing.T) {
	users, _, err := Aggregate([]ExamResult{
		result("u1", 70, true),
		result("u1", 71, true),
	}, SkipMissingUsers)
	require.NoError(t, err)
	assert.Equal(t, 71, users[0].AverageScore)

	users, _, err = Aggregate([]ExamResult{
		result("u1", 33.3, false),
		result("u1", 33.3, false),
		result("u1", 33.3, false),
	}, SkipMissingUsers)
	require.NoError(t, err)
	assert.Equal(t, 33, users[0].AverageScore)
}

func TestAggregateFirstSeenOrderAndCounts(t *testing.T) {
	input := []ExamResult{
		result("b", 50, false),
		result("a", 90, true),
		result("", 60, true),
		result("b", 70, true),
		result("c", 20, false),
		result("a", 30, false),
	}
	users, skipped, err := Aggregate(input, SkipMissingUsers)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	ids := make([]string, 0, len(users))
	sum := 0
	for _, u := range users {
		ids = append(ids, u.UserID)
		assert.Equal(t, u.TotalExams, u.PassedExams+u.FailedExams)
		sum += u.PassedExams + u.FailedExams
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, len(input)-skipped, sum)

	assert.Equal(t, UserPerformance{UserID: "b", Name: "name-b", TotalExams: 2, AverageScore: 60, PassedExams: 1, FailedExams: 1}, users[0])
}

func TestAggregateRejectPolicy(t *testing.T) {
	input := []ExamResult{result("u1", 50, true), {ID: "r2", User: &UserRef{}}}
	_, _, err := Aggregate(input, RejectMissingUsers)
	require.ErrorIs(t, err, ErrMissingUser)
	assert.Contains(t, err.Error(), "row 1")
}

func TestAggregateGroupPolicy(t *testing.T) {
	input := []ExamResult{
		result("", 40, false),
		result("u1", 50, true),
		result("", 80, true),
	}
	users, skipped, err := Aggregate(input, GroupMissingUsers)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].UserID)
	last := users[1]
	assert.Equal(t, UnattributedName, last.Name)
	assert.Equal(t, 2, last.TotalExams)
	assert.Equal(t, 60, last.AverageScore)
	assert.Equal(t, 1, last.PassedExams)
	assert.Equal(t, 1, last.FailedExams)
}

func TestAggregateEmpty(t *testing.T) {
	users, skipped, err := Aggregate(nil, "")
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, skipped)
}

func TestParseMissingUserPolicy(t *testing.T) {
	p, err := ParseMissingUserPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SkipMissingUsers, p)

	p, err = ParseMissingUserPolicy(" Unattributed ")
	require.NoError(t, err)
	assert.Equal(t, GroupMissingUsers, p)

	_, err = ParseMissingUserPolicy("drop")
	assert.Error(t, err)
}
