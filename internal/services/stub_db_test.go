package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
)

// stubDriver backs a *sql.DB whose transactions are no-ops. The repository
// fakes keep their state in memory, so the services' transaction plumbing only
// needs a DB that can hand out commit/rollback-able transactions.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub driver does not prepare statements")
}
func (*stubConn) Close() error              { return nil }
func (*stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

// BeginTx accepts any isolation level, including serializable.
func (*stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubDriver.Do(func() { sql.Register("servicestub", stubDriver{}) })
	db, err := sql.Open("servicestub", "")
	if err != nil {
		t.Fatalf("opening stub db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
