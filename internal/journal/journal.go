// Package journal 把每次 AutoTrader 调用的摘要写入 SQLite，供 history 子命令查询
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/betbot/goautotrader/autotrader/client"
)

var log = logrus.WithField("component", "journal")

// MemoryPath 内存库，进程退出即丢弃
const MemoryPath = ":memory:"

const writeTimeout = 5 * time.Second

// Entry 一条调用记录
type Entry struct {
	ID            int64
	RequestID     string
	Operation     string
	Method        string
	Path          string
	PseudoAccount string
	StartedAt     time.Time
	Duration      time.Duration
	Attempts      int
	OK            bool
	Kind          string
	Message       string
	Code          string
	Status        int
}

// Summary 按操作汇总
type Summary struct {
	Operation string
	Calls     int
	Failures  int
	Retried   int
}

// Journal 调用日志库
type Journal struct {
	db *sql.DB
}

var _ client.Observer = (*Journal)(nil)

// Open 打开（必要时创建）调用日志库
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal: path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接；内存库也只能这样共享
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS calls (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  request_id TEXT NOT NULL,
  operation TEXT NOT NULL,
  method TEXT NOT NULL,
  path TEXT NOT NULL,
  pseudo_account TEXT,
  started_at TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  attempts INTEGER NOT NULL,
  ok INTEGER NOT NULL,
  kind TEXT,
  message TEXT,
  code TEXT,
  status INTEGER
);`,
		`CREATE INDEX IF NOT EXISTS idx_calls_started_at ON calls(started_at);`,
	}
	for _, q := range stmts {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate exec failed: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// ObserveCall 实现 client.Observer；写入失败只记日志，不影响调用方
func (j *Journal) ObserveCall(e client.CallEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := j.Record(ctx, e); err != nil {
		log.WithError(err).WithField("operation", e.Operation).Warn("写入调用日志失败")
	}
}

// Record 写入一条调用记录
func (j *Journal) Record(ctx context.Context, e client.CallEvent) error {
	var kind sql.NullString
	if !e.OK {
		kind = sql.NullString{String: e.Kind.String(), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO calls (request_id, operation, method, path, pseudo_account, started_at, duration_ms, attempts, ok, kind, message, code, status)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
`, e.RequestID, e.Operation, e.Method, e.Path, nullString(e.PseudoAccount),
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.Duration.Milliseconds(), e.Attempts, boolToInt(e.OK),
		kind, nullString(e.Message), nullString(string(e.Code)), e.Status)
	return err
}

// Recent 最近的调用，新的在前
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, request_id, operation, method, path, pseudo_account, started_at, duration_ms, attempts, ok, kind, message, code, status
FROM calls
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			account   sql.NullString
			startedAt string
			ms        int64
			okVal     int
			kind      sql.NullString
			message   sql.NullString
			code      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Operation, &e.Method, &e.Path, &account, &startedAt, &ms, &e.Attempts, &okVal, &kind, &message, &code, &e.Status); err != nil {
			return nil, err
		}
		e.PseudoAccount = account.String
		e.Duration = time.Duration(ms) * time.Millisecond
		e.OK = okVal == 1
		e.Kind = kind.String
		e.Message = message.String
		e.Code = code.String
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summarize 按操作统计调用次数、失败次数、发生过重试的次数
func (j *Journal) Summarize(ctx context.Context) ([]Summary, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT operation, COUNT(*), SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), SUM(CASE WHEN attempts > 1 THEN 1 ELSE 0 END)
FROM calls
GROUP BY operation
ORDER BY operation
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Operation, &s.Calls, &s.Failures, &s.Retried); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
