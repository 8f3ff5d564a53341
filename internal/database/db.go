package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Options describe a MySQL connection.  Timezone is the IANA zone booking
// timestamps are stored in; DATETIME columns are parsed into that location.
type Options struct {
	User     string
	Pass     string
	Host     string
	Port     string
	Name     string
	Timezone string
}

// DSN renders the go-sql-driver/mysql data source name.
func (o Options) DSN() string {
	auth := o.User
	if o.Pass != "" {
		auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
	}
	loc := o.Timezone
	if loc == "" {
		loc = "UTC"
	}
	// parseTime=true -> DATETIME -> time.Time in the shop's zone
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=%s",
		auth, o.Host, o.Port, o.Name, url.QueryEscape(loc))
}

// Open connects to MySQL and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
