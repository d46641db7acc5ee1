package types

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/samber/lo"
)

// UserActivity is one finished game or exercise. Scores arrive precomputed from the client.
type UserActivity struct {
	ID                 int64    `db:"id" json:"id,string"`
	UserID             string   `db:"user_id" json:"user_id"`
	ActivityType       string   `db:"activity_type" json:"activity_type"`
	Score              float64  `db:"score" json:"score"`
	AccuracyPercentage float64  `db:"accuracy_percentage" json:"accuracy_percentage"`
	CompletedAt        int64    `db:"completed_at" json:"completed_at"`
	ActivityData       JSONData `db:"activity_data" json:"activity_data,omitempty"`
}

// UserPatterns 由最近的活动记录汇总而来，随上下文一起发送给 workflow
type UserPatterns struct {
	TotalActivities    int            `json:"total_activities"`
	ActivityCounts     map[string]int `json:"activity_counts"`
	AverageScore       float64        `json:"average_score"`
	AverageAccuracy    float64        `json:"average_accuracy"`
	LatestActivityType string         `json:"latest_activity_type,omitempty"`
	LatestCompletedAt  int64          `json:"latest_completed_at,omitempty"`
}

// BuildUserPatterns expects activities newest first, the order ListRecent returns them in.
func BuildUserPatterns(activities []UserActivity) UserPatterns {
	p := UserPatterns{
		TotalActivities: len(activities),
		ActivityCounts:  lo.CountValuesBy(activities, func(item UserActivity) string { return item.ActivityType }),
	}
	if len(activities) == 0 {
		return p
	}

	p.AverageScore = lo.SumBy(activities, func(item UserActivity) float64 { return item.Score }) / float64(len(activities))
	p.AverageAccuracy = lo.SumBy(activities, func(item UserActivity) float64 { return item.AccuracyPercentage }) / float64(len(activities))

	latest := lo.MaxBy(activities, func(a, b UserActivity) bool { return a.CompletedAt > b.CompletedAt })
	p.LatestActivityType = latest.ActivityType
	p.LatestCompletedAt = latest.CompletedAt
	return p
}

// JSONData is a nullable jsonb column passed through untouched.
type JSONData []byte

func (j JSONData) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

func (j *JSONData) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		*j = bytes.Clone(src)
	case string:
		*j = JSONData(src)
	case nil:
		*j = nil
	default:
		return fmt.Errorf("pq: cannot convert %T to JSONData", src)
	}
	return nil
}

func (j JSONData) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONData) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*j = nil
		return nil
	}
	*j = bytes.Clone(data)
	return nil
}
