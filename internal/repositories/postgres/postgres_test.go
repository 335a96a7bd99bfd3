package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errNoDatabase = errors.New("statements are only rendered in these tests")

// dryRunConn never reaches a database. It reports itself as an open transaction
// so nested Transaction calls turn into SAVEPOINT statements, which DryRun skips.
type dryRunConn struct{}

func (dryRunConn) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (dryRunConn) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (dryRunConn) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (dryRunConn) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (dryRunConn) Commit() error   { return nil }
func (dryRunConn) Rollback() error { return nil }

type statement struct {
	SQL  string
	Vars []interface{}
}

type statementLog struct {
	mu    sync.Mutex
	stmts []statement
}

func (l *statementLog) record(db *gorm.DB) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vars := make([]interface{}, len(db.Statement.Vars))
	copy(vars, db.Statement.Vars)
	l.stmts = append(l.stmts, statement{SQL: db.Statement.SQL.String(), Vars: vars})
	// Writes check RowsAffected, pretend every statement matched a row
	db.RowsAffected = 1
}

func (l *statementLog) all() []statement {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]statement, len(l.stmts))
	copy(out, l.stmts)
	return out
}

func (l *statementLog) last(t *testing.T) statement {
	t.Helper()
	stmts := l.all()
	if len(stmts) == 0 {
		t.Fatal("no statement was rendered")
	}
	return stmts[len(stmts)-1]
}

// matching returns the statements whose SQL starts with prefix, in order
func (l *statementLog) matching(prefix string) []statement {
	var out []statement
	for _, stmt := range l.all() {
		if strings.HasPrefix(stmt.SQL, prefix) {
			out = append(out, stmt)
		}
	}
	return out
}

func newDryRunDB(t *testing.T) (*gorm.DB, *statementLog) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: dryRunConn{}}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	log := &statementLog{}
	cb := db.Callback()
	registrations := []error{
		cb.Create().After("gorm:create").Register("test:record", log.record),
		cb.Update().After("gorm:update").Register("test:record", log.record),
		cb.Delete().After("gorm:delete").Register("test:record", log.record),
		cb.Query().After("gorm:query").Register("test:record", log.record),
	}
	for _, err := range registrations {
		if err != nil {
			t.Fatalf("register callback: %v", err)
		}
	}
	return db, log
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}
