package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/learnhub-academy/learnhub/internal/reports"
)

// ExamResults lists every submitted exam result.
func (c *Client) ExamResults(ctx context.Context, token string) ([]reports.ExamResult, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/exams/results", token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[reports.ExamResult](raw)
}

// ExamStatistics lists the per-exam aggregates.
func (c *Client) ExamStatistics(ctx context.Context, token string) ([]reports.ExamStatistics, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/exams/statistics", token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[reports.ExamStatistics](raw)
}
