package dto

import (
	"strconv"
	"time"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
)

// CycleResponse is one postpaid cycle
type CycleResponse struct {
	ID                   string     `json:"id"`
	UserID               uint64     `json:"userId"`
	WindowStart          time.Time  `json:"windowStart"`
	WindowEnd            time.Time  `json:"windowEnd"`
	Charges              string     `json:"charges"`
	ChargesMicro         int64      `json:"chargesMicro"`
	Status               string     `json:"status"`
	SettledTransactionID string     `json:"settledTransactionId,omitempty"`
	Attempts             int        `json:"attempts"`
	SettledAt            *time.Time `json:"settledAt,omitempty"`
}

// NewCycleList maps cycles
func NewCycleList(cycles []entity.PostpaidCycle) []CycleResponse {
	out := make([]CycleResponse, 0, len(cycles))
	for _, c := range cycles {
		resp := CycleResponse{
			ID:           strconv.FormatUint(c.ID, 10),
			UserID:       c.UserID,
			WindowStart:  c.WindowStart,
			WindowEnd:    c.WindowEnd,
			Charges:      entity.FormatMicro(c.ChargesMicro),
			ChargesMicro: c.ChargesMicro,
			Status:       string(c.Status),
			Attempts:     c.Attempts,
			SettledAt:    c.SettledAt,
		}
		if c.SettledTransactionID != 0 {
			resp.SettledTransactionID = strconv.FormatUint(c.SettledTransactionID, 10)
		}
		out = append(out, resp)
	}
	return out
}

// JobRunResponse acknowledges a manual job run
type JobRunResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}
