package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/port"
)

// MySQLStore implements InventoryStore on MySQL. Isolation comes from
// SELECT ... FOR UPDATE row locks: concurrent order transactions touching
// the same item queue on the row until the holder commits or rolls back.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Migrate creates the tables the store needs.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			id             BIGINT AUTO_INCREMENT PRIMARY KEY,
			name           VARCHAR(100) NOT NULL,
			description    TEXT,
			price          DECIMAL(12,2) NOT NULL,
			stock_quantity INT NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id      BIGINT NOT NULL,
			status       VARCHAR(20) NOT NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id     BIGINT NOT NULL,
			inventory_id BIGINT NOT NULL,
			quantity     INT NOT NULL,
			price        DECIMAL(12,2) NOT NULL,
			KEY idx_order_items_order (order_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return unavailable("migrate", err)
		}
	}
	return nil
}

func (s *MySQLStore) BeginOrderTx(ctx context.Context) (port.OrderTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin tx", err)
	}
	return &mysqlOrderTx{tx: tx}, nil
}

func (s *MySQLStore) GetItem(ctx context.Context, itemID int64) (*domain.InventoryItem, error) {
	return scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM inventory WHERE id = ?`, itemID))
}

func (s *MySQLStore) ListItems(ctx context.Context, offset, limit int) ([]domain.InventoryItem, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM inventory ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, unavailable("list inventory", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, limit)
	for rows.Next() {
		var item domain.InventoryItem
		var description sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.Price,
			&item.StockQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, unavailable("scan inventory", err)
		}
		item.Description = description.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list inventory", err)
	}
	return items, nil
}

func (s *MySQLStore) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (name, description, price, stock_quantity)
		VALUES (?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.StockQuantity)
	if err != nil {
		return unavailable("insert inventory", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("inventory id", err)
	}
	item.ID = id

	created, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	*item = *created
	return nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

type mysqlOrderTx struct {
	tx *sql.Tx
}

func (t *mysqlOrderTx) ItemForUpdate(ctx context.Context, itemID int64) (*domain.InventoryItem, error) {
	return scanItem(t.tx.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM inventory WHERE id = ? FOR UPDATE`, itemID))
}

func (t *mysqlOrderTx) DecrementStock(ctx context.Context, itemID int64, quantity int) (int, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET stock_quantity = stock_quantity - ?, updated_at = NOW()
		WHERE id = ? AND stock_quantity >= ?`,
		quantity, itemID, quantity)
	if err != nil {
		return 0, unavailable("decrement stock", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return 0, &domain.StockError{ItemID: itemID}
	}

	var remaining int
	err = t.tx.QueryRowContext(ctx,
		`SELECT stock_quantity FROM inventory WHERE id = ?`, itemID).Scan(&remaining)
	if err != nil {
		return 0, unavailable("read stock", err)
	}
	return remaining, nil
}

func (t *mysqlOrderTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (user_id, status, total_amount, created_at)
		VALUES (?, ?, ?, ?)`,
		order.UserID, order.Status, order.TotalAmount, order.CreatedAt)
	if err != nil {
		return unavailable("insert order", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("order id", err)
	}
	order.ID = id

	for _, line := range order.Lines {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, inventory_id, quantity, price)
			VALUES (?, ?, ?, ?)`,
			order.ID, line.InventoryID, line.Quantity, line.UnitPrice); err != nil {
			return unavailable("insert order line", err)
		}
	}
	return nil
}

func (t *mysqlOrderTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

func (t *mysqlOrderTx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return unavailable("rollback", err)
	}
	return nil
}

func scanItem(row *sql.Row) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var description sql.NullString
	err := row.Scan(&item.ID, &item.Name, &description, &item.Price,
		&item.StockQuantity, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, unavailable("scan item", err)
	}
	item.Description = description.String
	return &item, nil
}

// unavailable translates a driver failure into the store-unavailable kind.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
