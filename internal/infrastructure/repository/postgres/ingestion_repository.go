package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type IngestionRepository struct {
	db *sqlx.DB
}

func NewIngestionRepository(db *sqlx.DB) *IngestionRepository {
	return &IngestionRepository{db: db}
}

func (r *IngestionRepository) Create(ctx context.Context, log ingestion.Log) error {
	query, args, err := qb.InsertModel("ingestion_logs", ingestionLogTableModel{
		ID:        log.ID,
		Kind:      string(log.Kind),
		Source:    log.Source,
		Payload:   log.Payload,
		Status:    string(log.Status),
		CreatedAt: log.CreatedAt.UTC(),
		UpdatedAt: log.UpdatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert ingestion log query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ingestion log=%s: %w", log.ID, err)
	}
	return nil
}

func (r *IngestionRepository) GetByID(ctx context.Context, id string) (ingestion.Log, bool, error) {
	row, ok, err := r.getRow(ctx, conn(ctx, r.db), id)
	if err != nil || !ok {
		return ingestion.Log{}, ok, err
	}
	return ingestionLogFromRow(row), true, nil
}

// MarkVerified flips the row with a status='pending' precondition so two
// concurrent reviews cannot both succeed. The verification record is written
// in the same transaction.
func (r *IngestionRepository) MarkVerified(ctx context.Context, id string, record ingestion.VerificationRecord) (ingestion.Log, error) {
	var out ingestion.Log
	err := withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := conn(ctx, r.db)
		row, err := r.review(ctx, exec, id, qb.Update("ingestion_logs").
			Set("status", string(ingestion.StatusVerified)).
			Set("reviewed_by", optionalString(record.VerifierID)).
			Set("updated_at", record.CreatedAt.UTC()))
		if err != nil {
			return err
		}

		query, args, err := qb.InsertModel("ingestion_verifications", ingestionVerificationTableModel{
			IngestionID:     id,
			VerifierID:      record.VerifierID,
			ConfidenceScore: record.ConfidenceScore,
			Notes:           record.Notes,
			CreatedAt:       record.CreatedAt.UTC(),
		}, "")
		if err != nil {
			return fmt.Errorf("build insert verification record query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert verification record ingestion=%s: %w", id, err)
		}
		out = ingestionLogFromRow(row)
		return nil
	})
	if err != nil {
		return ingestion.Log{}, err
	}
	return out, nil
}

func (r *IngestionRepository) MarkRejected(ctx context.Context, id, reason, reviewerID string, at time.Time) (ingestion.Log, error) {
	row, err := r.review(ctx, conn(ctx, r.db), id, qb.Update("ingestion_logs").
		Set("status", string(ingestion.StatusRejected)).
		Set("reject_reason", optionalString(reason)).
		Set("reviewed_by", optionalString(reviewerID)).
		Set("updated_at", at.UTC()))
	if err != nil {
		return ingestion.Log{}, err
	}
	return ingestionLogFromRow(row), nil
}

func (r *IngestionRepository) SetResolution(ctx context.Context, id, entityID, resolutionErr string, at time.Time) error {
	query, args, err := qb.Update("ingestion_logs").
		Set("resolved_entity_id", optionalString(entityID)).
		Set("resolution_error", optionalString(resolutionErr)).
		Set("updated_at", at.UTC()).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set resolution query: %w", err)
	}
	result, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set resolution ingestion=%s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set resolution ingestion=%s rows affected: %w", id, err)
	}
	if affected == 0 {
		return ingestion.ErrNotFound
	}
	return nil
}

func (r *IngestionRepository) GetVerification(ctx context.Context, id string) (ingestion.VerificationRecord, bool, error) {
	query, args, err := qb.Select(qb.Columns(ingestionVerificationTableModel{})...).From("ingestion_verifications").
		Where(qb.Eq("ingestion_id", id)).
		ToSQL()
	if err != nil {
		return ingestion.VerificationRecord{}, false, fmt.Errorf("build get verification query: %w", err)
	}
	var row ingestionVerificationTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return ingestion.VerificationRecord{}, false, nil
		}
		return ingestion.VerificationRecord{}, false, fmt.Errorf("get verification ingestion=%s: %w", id, err)
	}
	return ingestion.VerificationRecord{
		IngestionID:     row.IngestionID,
		VerifierID:      row.VerifierID,
		ConfidenceScore: row.ConfidenceScore,
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt.UTC(),
	}, true, nil
}

// review applies update only to a pending row. When no row matched it reloads
// the log to tell a missing id apart from an already reviewed one.
func (r *IngestionRepository) review(ctx context.Context, exec executor, id string, update *qb.UpdateBuilder) (ingestionLogTableModel, error) {
	query, args, err := update.
		Where(qb.Eq("id", id), qb.Eq("status", string(ingestion.StatusPending))).
		Suffix("RETURNING " + joinColumns(ingestionLogTableModel{})).
		ToSQL()
	if err != nil {
		return ingestionLogTableModel{}, fmt.Errorf("build review ingestion query: %w", err)
	}

	var row ingestionLogTableModel
	err = exec.GetContext(ctx, &row, query, args...)
	if err == nil {
		return row, nil
	}
	if !isNotFound(err) {
		return ingestionLogTableModel{}, fmt.Errorf("review ingestion=%s: %w", id, err)
	}

	current, ok, err := r.getRow(ctx, exec, id)
	if err != nil {
		return ingestionLogTableModel{}, err
	}
	if !ok {
		return ingestionLogTableModel{}, ingestion.ErrNotFound
	}
	if termErr := ingestionLogFromRow(current).TerminalError(); termErr != nil {
		return ingestionLogTableModel{}, termErr
	}
	return ingestionLogTableModel{}, fmt.Errorf("review ingestion=%s: %w", id, sql.ErrNoRows)
}

func (r *IngestionRepository) getRow(ctx context.Context, exec executor, id string) (ingestionLogTableModel, bool, error) {
	return getOne[ingestionLogTableModel](ctx, exec, "ingestion_logs", qb.Eq("id", id))
}

func ingestionLogFromRow(row ingestionLogTableModel) ingestion.Log {
	return ingestion.Log{
		ID:               row.ID,
		Kind:             ingestion.Kind(row.Kind),
		Source:           row.Source,
		Payload:          append([]byte(nil), row.Payload...),
		Status:           ingestion.Status(row.Status),
		RejectReason:     nullStringValue(row.RejectReason),
		ReviewedBy:       nullStringValue(row.ReviewedBy),
		ResolvedEntityID: nullStringValue(row.ResolvedEntityID),
		ResolutionError:  nullStringValue(row.ResolutionError),
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
}
