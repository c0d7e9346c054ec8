package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNoDatabaseName is returned when a connection URL names no database.
var ErrNoDatabaseName = errors.New("no database name in URL")

// AdminURL rewrites dbURL to point at the maintenance "postgres" database and
// returns the database name from the path.
func AdminURL(dbURL string) (string, string, error) {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "", "", fmt.Errorf("parse db url: %w", err)
	}
	name, err := url.PathUnescape(strings.TrimPrefix(parsed.Path, "/"))
	if err != nil {
		return "", "", fmt.Errorf("unescape database name: %w", err)
	}
	if name == "" {
		return "", "", ErrNoDatabaseName
	}
	parsed.Path = "/postgres"
	parsed.RawPath = ""
	return parsed.String(), name, nil
}

// CreateDatabase creates the database named by dbURL. It reports false when
// the database already exists.
func CreateDatabase(ctx context.Context, dbURL string) (bool, error) {
	adminURL, name, err := AdminURL(dbURL)
	if err != nil {
		return false, err
	}

	conn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return false, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx) //nolint:errcheck

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup database: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return false, fmt.Errorf("create database: %w", err)
	}
	return true, nil
}
