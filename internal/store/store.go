package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql schema_postgres.sql
var schemaFS embed.FS

// 支持的驱动
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store 指标数据存储层（SQLite / PostgreSQL）
type Store struct {
	db     *sql.DB
	driver string
}

// New 打开数据库并初始化表结构
func New(driver, dsn string) (*Store, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite 建议单连接
		db.SetMaxIdleConns(1)
	}

	s := &Store{db: db, driver: driver}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// ensureDir 确保 SQLite 文件所在目录存在
func ensureDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func (s *Store) initSchema() error {
	name := "schema_sqlite.sql"
	if s.driver == DriverPostgres {
		name = "schema_postgres.sql"
	}
	schemaSQL, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Driver 当前驱动名
func (s *Store) Driver() string {
	return s.driver
}

// Ping 检查连接
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind 将 ? 占位符转换为当前驱动的格式（PostgreSQL 使用 $n）
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
