package dto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

const maxHistoryLimit = 100

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate resolves the requested sync type. An empty type means incremental.
func (r *TriggerRequest) Validate() (domain.SyncType, []ValidationError) {
	syncType, ok := domain.ParseSyncType(strings.TrimSpace(r.SyncType))
	if !ok {
		return "", []ValidationError{{Field: "syncType", Message: "must be 'full' or 'incremental'"}}
	}
	return syncType, nil
}

// ParseLimit reads the history limit query value. Empty means 0, which the
// ledger turns into its default.
func ParseLimit(raw string) (int, []ValidationError) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxHistoryLimit {
		return 0, []ValidationError{{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxHistoryLimit)}}
	}
	return n, nil
}
