package postgres

import (
	"database/sql"
	"time"
)

type ingestionLogTableModel struct {
	ID               string         `db:"id"`
	Kind             string         `db:"kind"`
	Source           string         `db:"source"`
	Payload          []byte         `db:"payload"`
	Status           string         `db:"status"`
	RejectReason     sql.NullString `db:"reject_reason"`
	ReviewedBy       sql.NullString `db:"reviewed_by"`
	ResolvedEntityID sql.NullString `db:"resolved_entity_id"`
	ResolutionError  sql.NullString `db:"resolution_error"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

type ingestionVerificationTableModel struct {
	IngestionID     string    `db:"ingestion_id"`
	VerifierID      string    `db:"verifier_id"`
	ConfidenceScore float64   `db:"confidence_score"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
}

type jobDispatchTableModel struct {
	JobID      string         `db:"job_id"`
	Kind       string         `db:"kind"`
	TargetID   string         `db:"target_id"`
	Status     string         `db:"status"`
	Attempt    int            `db:"attempt"`
	LastError  sql.NullString `db:"last_error"`
	TraceID    sql.NullString `db:"trace_id"`
	SpanID     sql.NullString `db:"span_id"`
	OccurredAt time.Time      `db:"occurred_at"`
}
