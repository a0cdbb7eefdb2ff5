package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker/internal/repository"
)

// ListOptions is the parsed form of the list query string: where/select/sort
// are JSON documents, skip/limit are clamped to be non-negative, and
// count=true asks for a match count instead of records.
type ListOptions struct {
	Query  repository.ListQuery
	Select map[string]int
	Count  bool
}

// ParseListOptions extracts and validates the list parameters from the
// request. "filter" is accepted as an alias for "select".
func ParseListOptions(c *gin.Context, defaultLimit int) (ListOptions, error) {
	opts := ListOptions{
		Query: repository.ListQuery{Limit: defaultLimit},
	}

	if err := parseJSONParam(c, "where", &opts.Query.Where); err != nil {
		return ListOptions{}, err
	}
	if err := parseJSONParam(c, "sort", &opts.Query.Sort); err != nil {
		return ListOptions{}, err
	}
	if err := parseJSONParam(c, "filter", &opts.Select); err != nil {
		return ListOptions{}, err
	}
	if err := parseJSONParam(c, "select", &opts.Select); err != nil {
		return ListOptions{}, err
	}

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			return ListOptions{}, fmt.Errorf("invalid value for 'skip'")
		}
		opts.Query.Skip = max(skip, 0)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return ListOptions{}, fmt.Errorf("invalid value for 'limit'")
		}
		opts.Query.Limit = max(limit, 0)
	}

	opts.Count = strings.EqualFold(c.Query("count"), "true")

	return opts, nil
}

func parseJSONParam(c *gin.Context, key string, dest any) error {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("invalid JSON for '%s'", key)
	}
	return nil
}
