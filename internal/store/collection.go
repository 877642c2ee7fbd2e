package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Record[T any] struct {
	Key   string
	Value T
}

// Collection is a JSON document table keyed by text. Table names come from a
// fixed list, never from user input.
type Collection[T any] struct {
	q    querier
	name string
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	var raw string
	err := c.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, c.name), key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, c.err("get", key, err)
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, false, c.err("decode", key, err)
	}
	return v, true, nil
}

func (c *Collection[T]) Put(ctx context.Context, key string, value T) error {
	b, err := json.Marshal(value)
	if err != nil {
		return c.err("encode", key, err)
	}
	_, err = c.q.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, c.name), key, string(b))
	if err != nil {
		return c.err("put", key, err)
	}
	return nil
}

// Delete removes key and reports whether a row existed.
func (c *Collection[T]) Delete(ctx context.Context, key string) (bool, error) {
	res, err := c.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.name), key)
	if err != nil {
		return false, c.err("delete", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, c.err("delete", key, err)
	}
	return n > 0, nil
}

func (c *Collection[T]) List(ctx context.Context) ([]Record[T], error) {
	return c.query(ctx, "list", fmt.Sprintf(`SELECT key, value FROM %s ORDER BY key`, c.name))
}

// Range returns records with from <= key <= to. An empty bound is open.
func (c *Collection[T]) Range(ctx context.Context, from, to string) ([]Record[T], error) {
	query := fmt.Sprintf(`SELECT key, value FROM %s WHERE 1=1`, c.name)
	args := make([]any, 0, 2)
	if from != "" {
		query += ` AND key >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND key <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY key`
	return c.query(ctx, "range", query, args...)
}

func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s`, c.name)).Scan(&n); err != nil {
		return 0, c.err("count", "", err)
	}
	return n, nil
}

func (c *Collection[T]) Clear(ctx context.Context) error {
	if _, err := c.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, c.name)); err != nil {
		return c.err("clear", "", err)
	}
	return nil
}

func (c *Collection[T]) query(ctx context.Context, op, query string, args ...any) ([]Record[T], error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.err(op, "", err)
	}
	defer rows.Close()

	out := make([]Record[T], 0)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, c.err(op, "", err)
		}
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, c.err("decode", key, err)
		}
		out = append(out, Record[T]{Key: key, Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, c.err(op, "", err)
	}
	return out, nil
}

func (c *Collection[T]) err(op, key string, err error) error {
	return &Error{Op: op, Collection: c.name, Key: key, Err: err}
}

// ListRaw returns the stored documents without decoding them.
func (c *Collection[T]) ListRaw(ctx context.Context) ([]Record[string], error) {
	rows, err := c.q.QueryContext(ctx, fmt.Sprintf(`SELECT key, value FROM %s ORDER BY key`, c.name))
	if err != nil {
		return nil, c.err("list", "", err)
	}
	defer rows.Close()

	out := make([]Record[string], 0)
	for rows.Next() {
		var r Record[string]
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, c.err("list", "", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, c.err("list", "", err)
	}
	return out, nil
}
