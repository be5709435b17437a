package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"luigui/internal/logger"

	_ "github.com/alexbrainman/odbc"
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SchemaColumn is one entry of the pasted schema blob.
type SchemaColumn struct {
	SchemaName string `json:"schema_name"`
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
	ColumnType string `json:"column_type"`
}

const informationSchemaColumns = `SELECT table_schema, table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'pg_toast', 'sys', 'mysql', 'performance_schema')
ORDER BY table_schema, table_name, ordinal_position`

var columnQueries = map[string]string{
	"postgres":  informationSchemaColumns,
	"mysql":     strings.Replace(informationSchemaColumns, "WHERE ", "WHERE table_schema = DATABASE() AND ", 1),
	"sqlserver": informationSchemaColumns,
	"odbc":      informationSchemaColumns,
	"sqlite": `SELECT 'main', m.name, p.name, p.type
FROM sqlite_master m JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`,
}

// SupportedDrivers lists the drivers Extract accepts.
func SupportedDrivers() []string {
	return []string{"postgres", "mysql", "sqlserver", "sqlite", "odbc"}
}

// SchemaExtractor reads column metadata from a database the user can reach,
// producing the blob a schema-provided connection needs.
type SchemaExtractor struct {
	Timeout time.Duration
}

func NewSchemaExtractor() *SchemaExtractor {
	return &SchemaExtractor{Timeout: 30 * time.Second}
}

func (e *SchemaExtractor) Extract(ctx context.Context, driver, dsn string) ([]SchemaColumn, error) {
	query, ok := columnQueries[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q (use one of %s)", driver, strings.Join(SupportedDrivers(), ", "))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection (%s): %w", driver, err)
	}
	defer db.Close()

	ctxTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rows, err := db.QueryContext(ctxTimeout, query)
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	defer rows.Close()

	var cols []SchemaColumn
	for rows.Next() {
		var c SchemaColumn
		var colType sql.NullString
		if err := rows.Scan(&c.SchemaName, &c.TableName, &c.ColumnName, &colType); err != nil {
			return nil, err
		}
		c.ColumnType = strings.ToLower(colType.String)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.Info.Printf("Extracted %d columns using %s", len(cols), driver)
	return cols, nil
}

// ExtractJSON returns the extracted columns in the pasted-blob format.
func (e *SchemaExtractor) ExtractJSON(ctx context.Context, driver, dsn string) (string, error) {
	cols, err := e.Extract(ctx, driver, dsn)
	if err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("no tables found")
	}
	b, err := json.MarshalIndent(cols, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DirectConnection are the wizard's direct-kind fields.
type DirectConnection struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// PostgresDSN builds a lib/pq URL for c.
func (c DirectConnection) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable&connect_timeout=10",
	}
	return u.String()
}

// CheckConnection pings the PostgreSQL server the remote API will connect to.
func (e *SchemaExtractor) CheckConnection(ctx context.Context, c DirectConnection) error {
	db, err := sql.Open("postgres", c.PostgresDSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	ctxTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
