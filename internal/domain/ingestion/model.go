package ingestion

import (
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

type Kind string

const (
	KindMatch  Kind = "MATCH"
	KindPlayer Kind = "PLAYER"
	KindClub   Kind = "CLUB"
	KindLeague Kind = "LEAGUE"
	KindSeason Kind = "SEASON"
)

var AllKinds = []Kind{KindMatch, KindPlayer, KindClub, KindLeague, KindSeason}

func ParseKind(value string) (Kind, bool) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(value)))
	for _, item := range AllKinds {
		if item == kind {
			return kind, true
		}
	}
	return "", false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound                 = crerr.New("ingestion log not found")
	ErrAlreadyVerified          = crerr.New("ingestion log already verified")
	ErrAlreadyRejected          = crerr.New("ingestion log already rejected")
	ErrMissingRequiredReference = crerr.New("missing required reference")
	ErrUnknownKind              = crerr.New("unknown ingestion kind")
	ErrNothingToRetry           = crerr.New("ingestion log has no failed resolution to retry")
)

// Log is one externally submitted payload awaiting or past review.
type Log struct {
	ID               string
	Kind             Kind
	Source           string
	Payload          []byte
	Status           Status
	RejectReason     string
	ReviewedBy       string
	ResolvedEntityID string
	ResolutionError  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l Log) IsTerminal() bool {
	return l.Status == StatusVerified || l.Status == StatusRejected
}

// TerminalError returns the error describing why a terminal row cannot be
// reviewed again, or nil when the row is still pending.
func (l Log) TerminalError() error {
	switch l.Status {
	case StatusVerified:
		return ErrAlreadyVerified
	case StatusRejected:
		return ErrAlreadyRejected
	default:
		return nil
	}
}

// VerificationRecord captures who approved a payload and how confident they were.
type VerificationRecord struct {
	IngestionID     string
	VerifierID      string
	ConfidenceScore float64
	Notes           string
	CreatedAt       time.Time
}
