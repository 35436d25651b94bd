package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bakery-service/models"
	"bakery-service/services"
)

type TrackingRepo struct {
	db     *sql.DB
	orders *OrderRepo
}

func NewTrackingRepo(db *sql.DB) *TrackingRepo {
	return &TrackingRepo{db: db, orders: NewOrderRepo(db)}
}

func (r *TrackingRepo) GetPartnerByUserID(ctx context.Context, userID int) (models.DeliveryPartner, error) {
	var p models.DeliveryPartner
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, total_deliveries
		FROM delivery_partners WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.TotalDeliveries)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeliveryPartner{}, services.ErrPartnerNotFound
	}
	if err != nil {
		return models.DeliveryPartner{}, fmt.Errorf("query delivery partner: %w", err)
	}
	return p, nil
}

// UpdateAgentLocation writes only the agent coordinate columns, guarded by
// the order's assignment, so a location push can neither land on someone
// else's order nor clobber a concurrent status change. Last write wins.
func (r *TrackingRepo) UpdateAgentLocation(ctx context.Context, orderID, partnerID int, lat, lng float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET agent_lat = ?, agent_lng = ?
		WHERE id = ? AND delivery_partner_id = ?`,
		lat, lng, orderID, partnerID,
	)
	if err != nil {
		return fmt.Errorf("update agent location: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update agent location: %w", err)
	}
	if affected == 0 {
		// Same coordinates repushed also affect zero rows on some servers;
		// distinguish a real assignment mismatch explicitly.
		var assigned sql.NullInt64
		err := r.db.QueryRowContext(ctx,
			`SELECT delivery_partner_id FROM orders WHERE id = ?`, orderID,
		).Scan(&assigned)
		if errors.Is(err, sql.ErrNoRows) {
			return services.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if !assigned.Valid || int(assigned.Int64) != partnerID {
			return services.ErrAgentNotAssigned
		}
	}
	return nil
}

func (r *TrackingRepo) GetTracking(ctx context.Context, orderID, userID int) (services.TrackingData, error) {
	order, err := r.orders.getOrder(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND user_id = ?`, orderID, userID)
	if err != nil {
		return services.TrackingData{}, err
	}

	data := services.TrackingData{Order: order}

	addr, err := r.orders.getAddress(ctx, orderID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return services.TrackingData{}, fmt.Errorf("query order address: %w", err)
	}
	data.Address = addr

	if order.DeliveryPartnerID != nil {
		var name string
		err := r.db.QueryRowContext(ctx,
			`SELECT name FROM delivery_partners WHERE id = ?`, *order.DeliveryPartnerID,
		).Scan(&name)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return services.TrackingData{}, fmt.Errorf("query partner name: %w", err)
		}
		data.AgentName = name
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, note, created_at
		FROM order_status_history WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return services.TrackingData{}, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.StatusHistoryEntry
		if err := rows.Scan(&entry.Status, &entry.Note, &entry.CreatedAt); err != nil {
			return services.TrackingData{}, fmt.Errorf("scan status history: %w", err)
		}
		data.History = append(data.History, entry)
	}
	return data, rows.Err()
}
