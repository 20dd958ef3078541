package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// topCategories returns up to limit category names ordered by wrong-answer
// count, ties broken alphabetically so the output is stable.
func topCategories(counts map[string]int, limit int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

func joinTopics(topics []string) string {
	return strings.Join(topics, ", ")
}

func marshalPayload(v interface{}) (datatypes.JSON, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recommendation payload: %w", err)
	}
	return payload, nil
}
