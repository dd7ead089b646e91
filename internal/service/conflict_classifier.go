package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/avicola-track/farm-service/internal/models"
)

const (
	// TimestampConflictThreshold is the server/client clock gap, in seconds, above
	// which a conflict is a TIMESTAMP_DIFF
	TimestampConflictThreshold = 3600
)

// WeightMismatchThreshold is the absolute average weight gap above which a
// weight conflict is HIGH priority
var WeightMismatchThreshold = decimal.NewFromInt(100)

// ClassifyConflict compares a client payload with the server record it collides with.
// It performs no I/O. The timestamp check short-circuits the data checks.
func ClassifyConflict(server models.ServerRecord, payload models.ConflictPayload) models.Verdict {
	if server == nil {
		return models.Verdict{Type: models.ConflictTypeDuplicate, Priority: models.PriorityLow}
	}

	if payload != nil {
		if ts := payload.ClientTimestamp(); ts != nil {
			gap := math.Abs(server.ServerCreatedAt().Sub(*ts).Seconds())
			if gap > TimestampConflictThreshold {
				return models.Verdict{Type: models.ConflictTypeTimestampDiff, Priority: models.PriorityHigh}
			}
		}
	}

	switch client := payload.(type) {
	case *models.WeightConflictPayload:
		if weight, ok := server.(*models.WeightRecord); ok {
			if weight.AverageWeight.Sub(client.AverageWeight).Abs().GreaterThan(WeightMismatchThreshold) {
				return models.Verdict{Type: models.ConflictTypeDataMismatch, Priority: models.PriorityHigh}
			}
		}
	}

	return models.Verdict{Type: models.ConflictTypeDataMismatch, Priority: models.PriorityMedium}
}
