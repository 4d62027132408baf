package search

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultTotalCount stands in for the total when upstream does not report
// one. The plain /users listing never does, so this value bounds pagination
// for unfiltered browsing.
const DefaultTotalCount = 1000

// UserSummary is one row of the users table.
type UserSummary struct {
	ID         int64  `json:"id"`
	Login      string `json:"login"`
	AvatarURL  string `json:"avatarUrl"`
	ProfileURL string `json:"profileUrl"`
}

// ListResult is the normalized table model.
type ListResult struct {
	Rows       []UserSummary `json:"rows"`
	TotalCount int           `json:"totalCount"`
}

type userRecord struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type searchPayload struct {
	Items      []userRecord `json:"items"`
	TotalCount int          `json:"total_count"`
}

// Reconcile normalizes a raw upstream payload produced for d. Unfiltered
// payloads are plain arrays with an unknown total; search payloads wrap the
// rows in items and report total_count. Upstream order is kept and rows are
// cut to pageSize, since some endpoints treat per_page as advisory.
func Reconcile(d Directive, raw json.RawMessage, pageSize int) (ListResult, error) {
	var records []userRecord
	total := DefaultTotalCount

	if len(bytes.TrimSpace(raw)) > 0 {
		switch d.Kind {
		case Search:
			var payload searchPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return ListResult{}, fmt.Errorf("decode search users payload: %w", err)
			}
			records = payload.Items
			if payload.TotalCount > 0 {
				total = payload.TotalCount
			}
		default:
			if err := json.Unmarshal(raw, &records); err != nil {
				return ListResult{}, fmt.Errorf("decode users payload: %w", err)
			}
		}
	}

	if pageSize > 0 && len(records) > pageSize {
		records = records[:pageSize]
	}

	rows := make([]UserSummary, 0, len(records))
	for _, r := range records {
		rows = append(rows, UserSummary{
			ID:         r.ID,
			Login:      r.Login,
			AvatarURL:  r.AvatarURL,
			ProfileURL: r.HTMLURL,
		})
	}
	return ListResult{Rows: rows, TotalCount: total}, nil
}
