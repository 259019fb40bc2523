package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"bhasapos/backend/internal/domain"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/xid"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_bills (
	seq            BIGSERIAL UNIQUE,
	id             TEXT PRIMARY KEY,
	invoice_number TEXT NOT NULL,
	customer_name  TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	payment_mode   TEXT NOT NULL,
	items          JSONB NOT NULL,
	total          NUMERIC NOT NULL,
	bill_date      TEXT NOT NULL,
	bill_time      TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE saved_bills ALTER COLUMN total TYPE NUMERIC;

CREATE TABLE IF NOT EXISTS app_users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables when missing and widens a saved_bills.total
// column created with a fixed scale.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) AppendBill(ctx context.Context, bill domain.Bill, capturedAt domain.Stamp) (*domain.SavedBill, error) {
	saved := domain.NewSavedBill(xid.New("bill"), bill, capturedAt)
	items, err := json.Marshal(saved.Items)
	if err != nil {
		return nil, store.Persistence("encode items", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_bills (
			id, invoice_number, customer_name, customer_phone, payment_mode,
			items, total, bill_date, bill_time, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
	`, saved.ID, saved.InvoiceNumber, saved.CustomerName, saved.CustomerPhone, string(saved.PaymentMode),
		string(items), saved.Total.String(), saved.Date, saved.Time)
	if err != nil {
		return nil, store.Persistence("insert saved_bills", err)
	}
	return &saved, nil
}

func (s *Store) ListBills(ctx context.Context) ([]domain.SavedBill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_number, customer_name, customer_phone, payment_mode,
			items, total::text, bill_date, bill_time
		FROM saved_bills
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, store.Persistence("query saved_bills", err)
	}
	defer rows.Close()

	bills := make([]domain.SavedBill, 0, 64)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, store.Persistence("scan saved_bills", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Persistence("iterate saved_bills", err)
	}
	return bills, nil
}

func (s *Store) GetBill(ctx context.Context, id string) (*domain.SavedBill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, invoice_number, customer_name, customer_phone, payment_mode,
			items, total::text, bill_date, bill_time
		FROM saved_bills
		WHERE id = $1
	`, id)
	bill, err := scanBill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.Persistence("get saved_bills", err)
	}
	return &bill, nil
}

func (s *Store) DeleteBill(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_bills WHERE id = $1`, id); err != nil {
		return store.Persistence("delete saved_bills", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (domain.SavedBill, error) {
	var (
		bill     domain.SavedBill
		mode     string
		rawItems []byte
		total    string
	)
	err := row.Scan(
		&bill.ID, &bill.InvoiceNumber, &bill.CustomerName, &bill.CustomerPhone, &mode,
		&rawItems, &total, &bill.Date, &bill.Time,
	)
	if err != nil {
		return domain.SavedBill{}, err
	}
	bill.PaymentMode = domain.PaymentMode(mode)
	if err := json.Unmarshal(rawItems, &bill.Items); err != nil {
		return domain.SavedBill{}, err
	}
	if bill.Items == nil {
		bill.Items = []domain.LineItem{}
	}
	bill.Total, err = decimal.NewFromString(total)
	if err != nil {
		return domain.SavedBill{}, err
	}
	return bill, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidUser
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidUser
		}
		return store.Persistence("insert app_users", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, store.Persistence("query app_users", err)
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, store.Persistence("scan app_users", err)
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Persistence("iterate app_users", err)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidUser
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return store.Persistence("update app_users", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.Persistence("update app_users", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
