package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"bakery-service/models"
	"bakery-service/services"
)

// Concurrent same-day checkouts can compute the same order-number suffix;
// the UNIQUE index rejects the loser, which retries with a fresh count.
const createOrderAttempts = 3

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder persists the order, its items, the immutable address snapshot
// and the PENDING history seed in one transaction. When the order redeems
// points, the guarded balance deduction and the REDEEMED ledger row join the
// same transaction so the ledger can never diverge from the balance.
func (r *OrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	var err error
	for attempt := 0; attempt < createOrderAttempts; attempt++ {
		err = r.createOrder(ctx, order)
		if !isDuplicateOrderNumber(err) {
			return err
		}
	}
	return fmt.Errorf("create order: %w", err)
}

func (r *OrderRepo) createOrder(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Human-readable order number: BAK-YYYYMMDD-NNN, sequence per day. The
	// count window is the number prefix itself, so it can never disagree
	// with the printed date around midnight.
	prefix := orderNumberPrefix(time.Now().UTC())
	var todayCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE order_number LIKE ?`, prefix+"%",
	).Scan(&todayCount)
	if err != nil {
		return fmt.Errorf("count today's orders: %w", err)
	}
	order.OrderNumber = fmt.Sprintf("%s%03d", prefix, todayCount+1)

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			order_number, user_id, status,
			subtotal, delivery_fee, tax, discount, total,
			coupon_id, points_redeemed, points_earned
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNumber, order.UserID, order.Status,
		order.Subtotal, order.DeliveryFee, order.Tax, order.Discount, order.Total,
		order.CouponID, order.PointsRedeemed, order.PointsEarned,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	order.ID = int(orderID)

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.ProductName, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	addr := order.Address
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_addresses (
			order_id, name, phone, street, city, postal_code,
			customer_lat, customer_lng, location_source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, addr.Name, addr.Phone, addr.Street, addr.City, addr.PostalCode,
		addr.CustomerLat, addr.CustomerLng, addr.LocationSource,
	)
	if err != nil {
		return fmt.Errorf("insert order address: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, note)
		VALUES (?, ?, ?)`,
		order.ID, models.StatusPending, "Order placed",
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if order.PointsRedeemed > 0 {
		if err := r.redeemPointsTx(ctx, tx, order); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func orderNumberPrefix(t time.Time) string {
	return "BAK-" + t.Format("20060102") + "-"
}

// isDuplicateOrderNumber reports whether an insert lost the race on the
// order_number UNIQUE index (MySQL error 1062). The orders table has no
// other unique key besides the primary key, which auto-increments.
func isDuplicateOrderNumber(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// redeemPointsTx performs the guarded deduction. Zero rows affected means a
// concurrent redemption drained the balance after validation; the caller
// retries the order without the redemption.
func (r *OrderRepo) redeemPointsTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE loyalty_accounts SET points = points - ?
		WHERE user_id = ? AND points >= ?`,
		order.PointsRedeemed, order.UserID, order.PointsRedeemed,
	)
	if err != nil {
		return fmt.Errorf("deduct points: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deduct points: %w", err)
	}
	if affected == 0 {
		return services.ErrInsufficientPoints
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`SELECT points FROM loyalty_accounts WHERE user_id = ?`, order.UserID,
	).Scan(&balance)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE loyalty_accounts SET tier = ? WHERE user_id = ?`,
		models.TierForPoints(balance), order.UserID,
	)
	if err != nil {
		return fmt.Errorf("recompute tier: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO points_transactions (user_id, points, type, order_id, description)
		VALUES (?, ?, ?, ?, ?)`,
		order.UserID, -order.PointsRedeemed, models.PointsRedeemed, order.ID,
		"Points redeemed on order",
	)
	if err != nil {
		return fmt.Errorf("insert redemption entry: %w", err)
	}
	return nil
}

// TransitionStatus applies one status machine step. The row lock plus the
// terminal re-check make duplicate DELIVERED submissions unable to reach the
// partner counter twice.
func (r *OrderRepo) TransitionStatus(ctx context.Context, orderID int, status string, partnerID *int, note string) (models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentStatus string
	var currentPartner sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT status, delivery_partner_id FROM orders WHERE id = ? FOR UPDATE`, orderID,
	).Scan(&currentStatus, &currentPartner)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, services.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("lock order: %w", err)
	}

	if models.IsTerminalStatus(currentStatus) {
		return models.Order{}, services.ErrOrderAlreadyFinal
	}

	// Narrow update: status and, when assigning, the partner. Agent
	// location pushes never travel through here.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, delivery_partner_id = COALESCE(?, delivery_partner_id)
		WHERE id = ?`,
		status, partnerID, orderID,
	)
	if err != nil {
		return models.Order{}, fmt.Errorf("update status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, note)
		VALUES (?, ?, ?)`,
		orderID, status, note,
	)
	if err != nil {
		return models.Order{}, fmt.Errorf("insert status history: %w", err)
	}

	if status == models.StatusDelivered {
		effectivePartner := currentPartner
		if partnerID != nil {
			effectivePartner = sql.NullInt64{Int64: int64(*partnerID), Valid: true}
		}
		if effectivePartner.Valid {
			_, err = tx.ExecContext(ctx,
				`UPDATE delivery_partners SET total_deliveries = total_deliveries + 1 WHERE id = ?`,
				effectivePartner.Int64,
			)
			if err != nil {
				return models.Order{}, fmt.Errorf("increment deliveries: %w", err)
			}
		}
	}

	order, err := scanOrderTx(ctx, tx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Order{}, fmt.Errorf("commit transaction: %w", err)
	}
	return order, nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID int) (models.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID)
}

func (r *OrderRepo) GetOrderForUser(ctx context.Context, orderID, userID int) (models.Order, error) {
	order, err := r.getOrder(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND user_id = ?`, orderID, userID)
	if err != nil {
		return models.Order{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return models.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return models.Order{}, fmt.Errorf("iterate order items: %w", err)
	}

	addr, err := r.getAddress(ctx, orderID)
	if err == nil {
		order.Address = &addr
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, err
	}
	return order, nil
}

func (r *OrderRepo) ListOrdersForUser(ctx context.Context, userID int) ([]models.OrderSummary, error) {
	return r.listOrders(ctx, `
		SELECT id, order_number, status, total, created_at
		FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *OrderRepo) ListOrdersByStatus(ctx context.Context, status string) ([]models.OrderSummary, error) {
	return r.listOrders(ctx, `
		SELECT id, order_number, status, total, created_at
		FROM orders WHERE status = ? ORDER BY created_at ASC`, status)
}

func (r *OrderRepo) listOrders(ctx context.Context, query string, arg any) ([]models.OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.OrderSummary
	for rows.Next() {
		var o models.OrderSummary
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const orderColumns = `id, order_number, user_id, status,
	subtotal, delivery_fee, tax, discount, total,
	coupon_id, points_redeemed, points_earned,
	delivery_partner_id, agent_lat, agent_lng, created_at, updated_at`

func (r *OrderRepo) getOrder(ctx context.Context, query string, args ...any) (models.Order, error) {
	var order models.Order
	var couponID, partnerID sql.NullInt64
	var agentLat, agentLng sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Status,
		&order.Subtotal, &order.DeliveryFee, &order.Tax, &order.Discount, &order.Total,
		&couponID, &order.PointsRedeemed, &order.PointsEarned,
		&partnerID, &agentLat, &agentLng, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, services.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("query order: %w", err)
	}

	applyNullables(&order, couponID, partnerID, agentLat, agentLng)
	return order, nil
}

func scanOrderTx(ctx context.Context, tx *sql.Tx, orderID int) (models.Order, error) {
	var order models.Order
	var couponID, partnerID sql.NullInt64
	var agentLat, agentLng sql.NullFloat64

	err := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID,
	).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Status,
		&order.Subtotal, &order.DeliveryFee, &order.Tax, &order.Discount, &order.Total,
		&couponID, &order.PointsRedeemed, &order.PointsEarned,
		&partnerID, &agentLat, &agentLng, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, fmt.Errorf("reload order: %w", err)
	}

	applyNullables(&order, couponID, partnerID, agentLat, agentLng)
	return order, nil
}

func applyNullables(order *models.Order, couponID, partnerID sql.NullInt64, agentLat, agentLng sql.NullFloat64) {
	if couponID.Valid {
		v := int(couponID.Int64)
		order.CouponID = &v
	}
	if partnerID.Valid {
		v := int(partnerID.Int64)
		order.DeliveryPartnerID = &v
	}
	if agentLat.Valid {
		order.AgentLat = &agentLat.Float64
	}
	if agentLng.Valid {
		order.AgentLng = &agentLng.Float64
	}
}

func (r *OrderRepo) getAddress(ctx context.Context, orderID int) (models.Address, error) {
	var addr models.Address
	var lat, lng sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT name, phone, street, city, postal_code,
			customer_lat, customer_lng, location_source
		FROM order_addresses WHERE order_id = ?`, orderID,
	).Scan(&addr.Name, &addr.Phone, &addr.Street, &addr.City, &addr.PostalCode,
		&lat, &lng, &addr.LocationSource)
	if err != nil {
		return models.Address{}, err
	}
	if lat.Valid {
		addr.CustomerLat = &lat.Float64
	}
	if lng.Valid {
		addr.CustomerLng = &lng.Float64
	}
	return addr, nil
}
