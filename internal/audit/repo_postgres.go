package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends audit events to the audit_events table.
//
// Expected schema (insert-only policy enforced at the DB level):
//
//	CREATE TABLE audit_events (
//	    id              text PRIMARY KEY,
//	    type            text NOT NULL,
//	    user_id         text,
//	    worker_sid      text,
//	    task_sid        text,
//	    phone_number_id text,
//	    dialed_number   text,
//	    message         text,
//	    metadata        jsonb,
//	    created_at      timestamptz NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
		INSERT INTO audit_events
			(id, type, user_id, worker_sid, task_sid, phone_number_id, dialed_number, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::jsonb, $10)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, string(e.Type), e.UserID, e.WorkerSID, e.TaskSID,
		e.PhoneNumberID, e.DialedNumber, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}
