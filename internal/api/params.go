// internal/api/params.go
package api

import (
	"net/http"
	"strconv"

	apperrors "awesome-hub/internal/errors"
	"awesome-hub/internal/model"
)

const (
	minPage = 1
	maxPage = 100
)

var validSorts = map[string]bool{
	"stars":   true,
	"forks":   true,
	"updated": true,
}

// parseSearchQuery validates the search endpoint's query parameters
// before any I/O happens. category=all means no category filter.
func parseSearchQuery(r *http.Request) (model.SearchQuery, error) {
	values := r.URL.Query()

	q := model.SearchQuery{
		Text: values.Get("q"),
		Page: 1,
	}
	if q.Text == "" {
		q.Text = "awesome"
	}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < minPage || page > maxPage {
			return model.SearchQuery{}, &apperrors.ErrInvalidParam{
				Param:  "page",
				Reason: "must be an integer between 1 and 100",
			}
		}
		q.Page = page
	}

	if category := values.Get("category"); category != "" && category != "all" {
		q.Category = category
	}

	q.Language = values.Get("language")
	q.Topic = values.Get("topic")

	if raw := values.Get("minStars"); raw != "" {
		minStars, err := strconv.Atoi(raw)
		if err != nil || minStars < 0 {
			return model.SearchQuery{}, &apperrors.ErrInvalidParam{
				Param:  "minStars",
				Reason: "must be a non-negative integer",
			}
		}
		q.MinStars = minStars
	}

	if sort := values.Get("sort"); sort != "" {
		if !validSorts[sort] {
			return model.SearchQuery{}, &apperrors.ErrInvalidParam{
				Param:  "sort",
				Reason: "must be one of stars, forks, updated",
			}
		}
		q.Sort = sort
	}

	return q, nil
}
