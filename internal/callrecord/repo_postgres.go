package callrecord

import (
	"context"
	"database/sql"
)

// PostgresRepo persists call records in Postgres. Append-only by contract:
// no UPDATE or DELETE is issued against call_records.
//
// Assumes the call_records table exists with the columns referenced below.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (
  id, call_id, customer_id, caller_number, agent_id, ts, duration, status,
  communication_mode, type, resolution, reason, tag, priority, notes,
  follow_up_required, follow_up_date, follow_up_time
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.CallID,
		rec.CustomerID,
		rec.CallerNumber,
		rec.AgentID,
		rec.Timestamp,
		rec.Duration,
		rec.Status,
		string(rec.CommunicationMode),
		string(rec.Type),
		string(rec.Resolution),
		rec.Reason,
		rec.Tag,
		string(rec.Priority),
		rec.Notes,
		rec.FollowUpRequired,
		rec.FollowUpDate,
		rec.FollowUpTime,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context) ([]CallRecord, error) {
	const q = `
SELECT id, call_id, customer_id, caller_number, agent_id, ts, duration, status,
       communication_mode, type, resolution, reason, tag, priority, notes,
       follow_up_required, follow_up_date, follow_up_time
FROM call_records
ORDER BY ts ASC, id ASC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var rec CallRecord
		var mode, typ, res, prio string
		if err := rows.Scan(
			&rec.ID,
			&rec.CallID,
			&rec.CustomerID,
			&rec.CallerNumber,
			&rec.AgentID,
			&rec.Timestamp,
			&rec.Duration,
			&rec.Status,
			&mode,
			&typ,
			&res,
			&rec.Reason,
			&rec.Tag,
			&prio,
			&rec.Notes,
			&rec.FollowUpRequired,
			&rec.FollowUpDate,
			&rec.FollowUpTime,
		); err != nil {
			return nil, err
		}
		rec.CommunicationMode = CommunicationMode(mode)
		rec.Type = InteractionType(typ)
		rec.Resolution = Resolution(res)
		rec.Priority = Priority(prio)
		out = append(out, rec)
	}
	return out, rows.Err()
}
