package domain

import (
	"time"

	"github.com/google/uuid"
)

// FraudVerdict is the outcome of a fraud evaluation.
type FraudVerdict string

const (
	FraudVerdictNormal     FraudVerdict = "normal"
	FraudVerdictSuspicious FraudVerdict = "suspicious"
	FraudVerdictError      FraudVerdict = "error"
)

// Factor tags for the individual fraud rules. Each tag identifies one
// triggered rule; a verdict can carry several.
const (
	FactorHighValue          = "high_value"
	FactorHighFrequency      = "high_frequency"
	FactorHighPeriodVolume   = "high_period_volume"
	FactorAnomalousMagnitude = "anomalous_magnitude"
	FactorRapidRepeat        = "rapid_repeat"
)

// FraudAnalysis is one evaluation of a transaction. Append-only: a
// re-evaluation produces a new row, never an update.
type FraudAnalysis struct {
	ID            uuid.UUID    `json:"id"`
	TransactionID uuid.UUID    `json:"transaction_id"`
	Verdict       FraudVerdict `json:"verdict"`
	Factors       []string     `json:"factors"`
	AnalyzedAt    time.Time    `json:"analyzed_at"`
}

// CardHistory is the aggregate of a card's recent transactions that the
// fraud rules evaluate against. The transaction under evaluation is
// excluded from the aggregate.
type CardHistory struct {
	CountLastHour     int64      `json:"count_last_hour"`
	SumLastHour       int64      `json:"sum_last_hour"`
	AvgAmount30d      float64    `json:"avg_amount_30d"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
}
