package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// dsn builds a go-sql-driver DSN. parseTime turns DATETIME columns
// into time.Time, and pinning loc to UTC keeps created_at ordering
// stable across server restarts in different timezones.
func dsn(user, pass, host, port, name string) string {
	cred := user
	if pass != "" {
		cred = user + ":" + pass
	}
	return cred + "@tcp(" + net.JoinHostPort(host, port) + ")/" + name +
		"?charset=utf8mb4&parseTime=true&loc=UTC"
}

// Open connects to MySQL, tunes the pool and verifies the connection
// before the server starts taking requests.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
