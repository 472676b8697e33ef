package domain

import "time"

type SimStatus string

const (
	SimStatusInStock SimStatus = "in_stock"
	SimStatusSent    SimStatus = "sent"
	SimStatusSold    SimStatus = "sold"
)

const LocationBackoffice = "Backoffice"

// SimCard is one physical SIM from a pickup list, keyed by its unique GSM
// number. Pickup ingestion is upsert-or-skip; there is no quantity invariant
// on the registry.
type SimCard struct {
	ID       int64
	CartonNo string
	BoxNo    string
	GSM      string
	ICCID    string
	SimType  string
	Location string
	Status   SimStatus
	Note     string
	AddedAt  time.Time
}

// PickupSummary is the outcome of one pickup-list ingestion.
type PickupSummary struct {
	Inserted          int      `json:"inserted"`
	DuplicatesSkipped int      `json:"duplicates_skipped"`
	Errors            []string `json:"errors,omitempty"`
}
