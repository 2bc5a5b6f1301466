package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"pharmaledger/internal/domain/audit"
)

// CompressionAlgo specifies how the changes payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const auditTable = "sys_audit"

// auditRow is the stored form of audit.Entry.
type auditRow struct {
	audit.Entry
	ChangesJSON       []byte          `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
}

// AuditRepo implements audit.Repository. Change payloads larger than the
// threshold are zstd-compressed into changes_compressed.
//
// Insert always writes through the pool: audit rows are recorded after the
// business commit and must not join a later transaction carried by ctx.
type AuditRepo struct {
	txManager         *TxManager
	builder           squirrel.StatementBuilderType
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditRepo creates the audit store. threshold <= 0 selects 2 KiB.
func NewAuditRepo(txManager *TxManager, threshold int) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = 2 * 1024
	}
	return &AuditRepo{
		txManager:         txManager,
		builder:           squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Insert implements audit.Repository.
func (r *AuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	row, err := r.encode(e)
	if err != nil {
		return err
	}

	sql, args, err := r.builder.Insert(auditTable).
		Columns(
			"id", "actor_id", "action", "entity_type", "entity_id", "entity_name",
			"changes", "changes_compressed", "compression_algo", "created_at",
		).
		Values(
			row.ID, row.ActorID, row.Action, row.EntityType, row.EntityID, row.EntityName,
			row.ChangesJSON, row.ChangesCompressed, row.CompressionAlgo, row.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List implements audit.Repository, newest first.
func (r *AuditRepo) List(ctx context.Context, filter audit.ListFilter) ([]audit.Entry, error) {
	q := r.builder.Select(
		"id", "actor_id", "action", "entity_type", "entity_id", "entity_name",
		"changes", "changes_compressed", "compression_algo", "created_at",
	).From(auditTable).OrderBy("created_at DESC", "id DESC")

	if filter.EntityType != "" {
		q = q.Where(squirrel.Eq{"entity_type": filter.EntityType})
	}
	if filter.EntityID != "" {
		q = q.Where(squirrel.Eq{"entity_id": filter.EntityID})
	}
	if filter.ActorID != "" {
		q = q.Where(squirrel.Eq{"actor_id": filter.ActorID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var row auditRow
		if err := rows.Scan(
			&row.ID, &row.ActorID, &row.Action, &row.EntityType, &row.EntityID, &row.EntityName,
			&row.ChangesJSON, &row.ChangesCompressed, &row.CompressionAlgo, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e, err := r.decode(&row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *AuditRepo) encode(e *audit.Entry) (*auditRow, error) {
	payload, err := json.Marshal(e.Changes)
	if err != nil {
		return nil, fmt.Errorf("marshal changes: %w", err)
	}

	row := &auditRow{Entry: *e, CompressionAlgo: CompressionNone}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if len(payload) > r.compressThreshold {
		row.ChangesCompressed = r.encoder.EncodeAll(payload, nil)
		row.CompressionAlgo = CompressionZstd
		return row, nil
	}
	row.ChangesJSON = payload
	return row, nil
}

func (r *AuditRepo) decode(row *auditRow) (*audit.Entry, error) {
	payload := row.ChangesJSON
	if row.CompressionAlgo == CompressionZstd && len(row.ChangesCompressed) > 0 {
		decompressed, err := r.decoder.DecodeAll(row.ChangesCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes of %s: %w", row.ID, err)
		}
		payload = decompressed
	}

	e := row.Entry
	e.Changes = map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Changes); err != nil {
			return nil, fmt.Errorf("unmarshal changes of %s: %w", row.ID, err)
		}
	}
	return &e, nil
}

var _ audit.Repository = (*AuditRepo)(nil)
