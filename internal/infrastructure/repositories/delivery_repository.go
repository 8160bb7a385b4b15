package repositories

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/core/ports"
	"github.com/provia/proofbridge/internal/infrastructure/db"
)

type deliveryRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewDeliveryRepository creates a Postgres-backed DeliveryRepository.
func NewDeliveryRepository(database *db.Database, logger *logrus.Logger) ports.DeliveryRepository {
	return &deliveryRepository{db: database, logger: logger}
}

// Create inserts a new delivery record.
func (r *deliveryRepository) Create(ctx context.Context, d *delivery.Delivery) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	query := `
		INSERT INTO deliveries (
			id, event_id, event_type, proof_id, attempts, outcome, last_error, created_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.DB.ExecContext(ctx, query,
		d.ID,
		d.EventID,
		d.EventType,
		d.ProofID,
		d.Attempts,
		d.Outcome,
		d.LastError,
		d.CreatedAt,
		d.CompletedAt,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"event_id": d.EventID, "event_type": d.EventType}).WithError(err).Error("db: failed to insert delivery")
		}
		return err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"event_id": d.EventID, "delivery_id": d.ID}).Debug("db: delivery inserted")
	}
	return nil
}

// Update writes the attempt count and outcome of an existing delivery.
func (r *deliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	query := `
		UPDATE deliveries
		SET attempts = $2, outcome = $3, last_error = $4, completed_at = $5
		WHERE id = $1`

	_, err := r.db.DB.ExecContext(ctx, query, d.ID, d.Attempts, d.Outcome, d.LastError, d.CompletedAt)
	if err != nil && r.logger != nil {
		r.logger.WithFields(logrus.Fields{"delivery_id": d.ID}).WithError(err).Error("db: failed to update delivery")
	}
	return err
}

// List retrieves deliveries matching the filter, newest first.
func (r *deliveryRepository) List(ctx context.Context, filter *delivery.Filter) ([]*delivery.Delivery, error) {
	query, args := buildDeliveryListQuery(filter)
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"query": query, "args": args}).Debug("db: executing delivery list query")
	}

	var out []*delivery.Delivery
	if err := r.db.DB.SelectContext(ctx, &out, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to execute delivery list query")
		}
		return nil, err
	}
	return out, nil
}

func buildDeliveryListQuery(filter *delivery.Filter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, event_id, event_type, proof_id, attempts, outcome, last_error, created_at, completed_at FROM deliveries`)

	var conds []string
	var args []interface{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}

	if filter != nil {
		if filter.EventType != "" {
			add("event_type =", filter.EventType)
		}
		if filter.ProofID != "" {
			add("proof_id =", filter.ProofID)
		}
		if filter.Outcome != "" {
			add("outcome =", string(filter.Outcome))
		}
		if filter.Since != nil {
			add("created_at >=", *filter.Since)
		}
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")

	limit := 100
	if filter != nil && filter.Limit > 0 {
		limit = filter.Limit
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	if filter != nil && filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}
