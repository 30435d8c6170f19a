package admission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"albumd/pkg/bus"
	"albumd/pkg/db"
)

const (
	approvedSubject       = "album.requests.approved"
	capacityExceededTopic = "album.capacity.exceeded"
	auditActor            = "admission"
	auditAction           = "over_admission"
)

type approvedEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	AlbumID   uuid.UUID `json:"album_id"`
	ClassID   uuid.UUID `json:"class_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type capacityRow struct {
	LimitCount    *int64 `db:"limit_count"`
	ApprovedCount int64  `db:"approved_count"`
}

// Reconciler watches request approvals and flags albums whose approved count
// has exceeded the configured member limit. Approvals are never blocked on
// the request path; this is the after-the-fact check that surfaces
// over-admission to operators.
type Reconciler struct {
	pool *pgxpool.Pool
	bus  *bus.Bus

	subMu sync.Mutex
	sub   io.Closer
}

// NewReconciler constructs a Reconciler for the provided dependencies.
func NewReconciler(pool *pgxpool.Pool, bus *bus.Bus) (*Reconciler, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	if bus == nil {
		return nil, errors.New("bus is required")
	}
	return &Reconciler{pool: pool, bus: bus}, nil
}

// Start subscribes to approval events and processes them until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	if r == nil {
		return errors.New("nil reconciler")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	handler := func(msgCtx context.Context, data []byte) error {
		return r.handleApproval(msgCtx, data)
	}

	sub, err := r.bus.Subscribe(ctx, approvedSubject, "admission-reconciler", handler)
	if err != nil {
		return err
	}

	r.subMu.Lock()
	r.sub = sub
	r.subMu.Unlock()

	return nil
}

// Close stops the underlying subscription if it was created.
func (r *Reconciler) Close() error {
	if r == nil {
		return nil
	}

	r.subMu.Lock()
	defer r.subMu.Unlock()

	if r.sub == nil {
		return nil
	}
	err := r.sub.Close()
	r.sub = nil
	return err
}

func (r *Reconciler) handleApproval(ctx context.Context, data []byte) error {
	var evt approvedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return err
	}
	if evt.AlbumID == uuid.Nil {
		return errors.New("album_id missing from event")
	}

	var row capacityRow
	err := db.Get(ctx, r.pool, &row, `
SELECT
    (SELECT limit_count FROM join_limits WHERE album_id = $1) AS limit_count,
    COUNT(*) FILTER (WHERE status = 'approved') AS approved_count
FROM access_requests
WHERE album_id = $1
`, evt.AlbumID)
	if err != nil {
		return err
	}

	overBy := overAdmission(row.LimitCount, row.ApprovedCount)
	if overBy <= 0 {
		return nil
	}

	if err := r.insertAudit(ctx, evt, row, overBy); err != nil {
		return err
	}

	return r.bus.Publish(ctx, capacityExceededTopic, map[string]any{
		"album_id":       evt.AlbumID,
		"limit_count":    *row.LimitCount,
		"approved_count": row.ApprovedCount,
		"over_by":        overBy,
		"observed_at":    time.Now().UTC(),
	})
}

func (r *Reconciler) insertAudit(ctx context.Context, evt approvedEvent, row capacityRow, overBy int64) error {
	details := map[string]any{
		"album_id":       evt.AlbumID.String(),
		"request_id":     evt.RequestID.String(),
		"limit_count":    *row.LimitCount,
		"approved_count": row.ApprovedCount,
		"over_by":        overBy,
	}

	detailsBytes, err := json.Marshal(details)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, r.pool, `
INSERT INTO audit (actor, action, obj, details)
VALUES ($1, $2, $3, $4::jsonb)
`, auditActor, auditAction, evt.AlbumID.String(), detailsBytes)
	return err
}

// overAdmission reports how far the approved count exceeds the limit.
// Zero or negative means within capacity; no limit means never over.
func overAdmission(limit *int64, approved int64) int64 {
	if limit == nil {
		return 0
	}
	return approved - *limit
}
