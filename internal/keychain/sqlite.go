package keychain

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteManager is a portable Manager persisting items in a SQLite file.
// Payloads are sealed before they are written and bound to the identity of
// the item they belong to, so rows cannot be swapped between accounts.
type SQLiteManager struct {
	db     *sql.DB
	sealer Sealer
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(path string, sealer Sealer) (*SQLiteManager, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open item database: %w", err)
	}
	// A single writer avoids "database is locked" errors.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping item database: %w", err)
	}

	m, err := NewSQLiteManager(db, sealer)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// NewSQLiteManager wraps an open database. Pending migrations are applied.
func NewSQLiteManager(db *sql.DB, sealer Sealer) (*SQLiteManager, error) {
	if sealer == nil {
		return nil, errors.New("sqlite manager: sealer required")
	}
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return &SQLiteManager{
		db:     db,
		sealer: sealer,
		logger: slog.With("component", "sqlite"),
	}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (m *SQLiteManager) Close() error {
	return m.db.Close()
}

type itemRow struct {
	id          int64
	class       string
	service     string
	accessGroup string
	account     string
	accessible  string
	nonce       []byte
	payload     []byte
}

func (r itemRow) additionalData() []byte {
	return []byte(strings.Join([]string{r.class, r.service, r.accessGroup, r.account}, "\x00"))
}

func (m *SQLiteManager) Add(attrs Attributes) Status {
	service, ok := attrs.String(AttrService)
	if !ok {
		return StatusParam
	}
	row := itemRow{class: ClassGenericPassword, service: service, accessible: string(DefaultAccessibility)}
	if class, ok := attrs.String(AttrClass); ok {
		row.class = class
	}
	row.accessGroup, _ = attrs.String(AttrAccessGroup)
	row.account, _ = attrs.String(AttrAccount)
	if a, ok := attrs.Accessibility(); ok {
		row.accessible = string(a)
	}
	if data, ok := attrs.Data(); ok {
		nonce, sealed, err := m.sealer.Seal(data, row.additionalData())
		if err != nil {
			m.logger.Error("sealing item payload", "account", row.account, "error", err)
			return StatusInternalComponent
		}
		row.nonce, row.payload = nonce, sealed
	}

	ctx := context.Background()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return m.ioStatus("begin add", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM secure_items WHERE class = ? AND service = ? AND access_group = ? AND account = ?`,
		row.class, row.service, row.accessGroup, row.account,
	).Scan(&exists)
	if err != nil {
		return m.ioStatus("check existing item", err)
	}
	if exists > 0 {
		return StatusDuplicateItem
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO secure_items (class, service, access_group, account, accessible, nonce, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.class, row.service, row.accessGroup, row.account, row.accessible, row.nonce, row.payload,
	)
	if err != nil {
		return m.ioStatus("insert item", err)
	}
	if err := tx.Commit(); err != nil {
		return m.ioStatus("commit add", err)
	}
	return StatusSuccess
}

func (m *SQLiteManager) Update(query, attrs Attributes) Status {
	ctx := context.Background()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return m.ioStatus("begin update", err)
	}
	defer tx.Rollback()

	rows, err := m.selectRows(ctx, tx, query, false)
	if err != nil {
		return m.ioStatus("select items for update", err)
	}
	if len(rows) == 0 {
		return StatusItemNotFound
	}

	data, hasData := attrs.Data()
	accessible, hasAccessible := attrs.Accessibility()
	for _, row := range rows {
		if hasData {
			nonce, sealed, err := m.sealer.Seal(data, row.additionalData())
			if err != nil {
				m.logger.Error("sealing item payload", "account", row.account, "error", err)
				return StatusInternalComponent
			}
			row.nonce, row.payload = nonce, sealed
		}
		if hasAccessible {
			row.accessible = string(accessible)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE secure_items SET accessible = ?, nonce = ?, payload = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			row.accessible, row.nonce, row.payload, row.id,
		)
		if err != nil {
			return m.ioStatus("update item", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return m.ioStatus("commit update", err)
	}
	return StatusSuccess
}

func (m *SQLiteManager) Delete(query Attributes) Status {
	where, args := whereClause(query)
	res, err := m.db.ExecContext(context.Background(), `DELETE FROM secure_items`+where, args...)
	if err != nil {
		return m.ioStatus("delete items", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return m.ioStatus("delete items", err)
	}
	if n == 0 {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (m *SQLiteManager) CopyMatching(query Attributes) (any, Status) {
	rows, err := m.selectRows(context.Background(), m.db, query, query.MatchLimit() != MatchLimitAll)
	if err != nil {
		return nil, m.ioStatus("select items", err)
	}

	wantData := query.Bool(AttrReturnData)
	found := make([]Attributes, 0, len(rows))
	for _, row := range rows {
		rec := Attributes{
			AttrClass:      row.class,
			AttrService:    row.service,
			AttrAccount:    row.account,
			AttrAccessible: Accessibility(row.accessible),
		}
		if row.accessGroup != "" {
			rec[AttrAccessGroup] = row.accessGroup
		}
		if wantData && row.payload != nil {
			plain, err := m.sealer.Open(row.nonce, row.payload, row.additionalData())
			if err != nil {
				m.logger.Error("opening item payload", "account", row.account, "error", err)
				return nil, StatusDecode
			}
			rec[AttrValueData] = plain
		}
		found = append(found, rec)
	}
	return shapeResult(query, found)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (m *SQLiteManager) selectRows(ctx context.Context, q queryer, query Attributes, one bool) ([]itemRow, error) {
	where, args := whereClause(query)
	stmt := `SELECT id, class, service, access_group, account, accessible, nonce, payload FROM secure_items` + where + ` ORDER BY id`
	if one {
		stmt += ` LIMIT 1`
	}
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []itemRow
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(&r.id, &r.class, &r.service, &r.accessGroup, &r.account, &r.accessible, &r.nonce, &r.payload); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var columns = []struct{ key, column string }{
	{AttrClass, "class"},
	{AttrService, "service"},
	{AttrAccessGroup, "access_group"},
	{AttrAccount, "account"},
}

func whereClause(query Attributes) (string, []any) {
	var conds []string
	var args []any
	for _, c := range columns {
		v, ok := query[c.key]
		// An absent access group selects the ungrouped items.
		if !ok && c.key != AttrAccessGroup {
			continue
		}
		s, _ := v.(string)
		conds = append(conds, c.column+" = ?")
		args = append(args, s)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (m *SQLiteManager) ioStatus(op string, err error) Status {
	m.logger.Error("item database error", "op", op, "error", err)
	return StatusIO
}
