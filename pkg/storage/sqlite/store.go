/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"database/sql"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/pkg/errors"
)

type store struct {
	name  string
	db    *sql.DB
	close func(name string)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (s *store) Put(key string, value []byte, tags ...storage.Tag) error {
	if key == "" || value == nil {
		return errors.New("key and value are mandatory")
	}

	if err := checkTags(tags); err != nil {
		return err
	}

	return s.inTx(func(tx *sql.Tx) error {
		return s.put(tx, key, value, tags)
	})
}

func (s *store) put(ex execer, key string, value []byte, tags []storage.Tag) error {
	_, err := ex.Exec(`INSERT INTO entries(store, item_key, item_value) VALUES(?, ?, ?)
		ON CONFLICT(store, item_key) DO UPDATE SET item_value = excluded.item_value`, s.name, key, value)
	if err != nil {
		return errors.Wrapf(err, "failed to put %s", key)
	}

	if _, err = ex.Exec(`DELETE FROM tags WHERE store = ? AND item_key = ?`, s.name, key); err != nil {
		return errors.Wrapf(err, "failed to replace tags of %s", key)
	}

	for _, t := range tags {
		_, err = ex.Exec(`INSERT INTO tags(store, item_key, tag_name, tag_value) VALUES(?, ?, ?, ?)`,
			s.name, key, t.Name, t.Value)
		if err != nil {
			return errors.Wrapf(err, "failed to tag %s", key)
		}
	}

	return nil
}

func (s *store) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key is mandatory")
	}

	var value []byte

	err := s.db.QueryRow(`SELECT item_value FROM entries WHERE store = ? AND item_key = ?`, s.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrDataNotFound
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", key)
	}

	return value, nil
}

func (s *store) GetTags(key string) ([]storage.Tag, error) {
	if _, err := s.Get(key); err != nil {
		return nil, err
	}

	return s.tags(key)
}

func (s *store) tags(key string) ([]storage.Tag, error) {
	rows, err := s.db.Query(`SELECT tag_name, tag_value FROM tags WHERE store = ? AND item_key = ?`, s.name, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get tags of %s", key)
	}

	defer rows.Close() //nolint:errcheck

	var tags []storage.Tag

	for rows.Next() {
		var t storage.Tag
		if err = rows.Scan(&t.Name, &t.Value); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag")
		}

		tags = append(tags, t)
	}

	return tags, errors.Wrap(rows.Err(), "failed to read tags")
}

func (s *store) GetBulk(keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, errors.New("keys slice must contain at least one key")
	}

	values := make([][]byte, len(keys))

	for i, key := range keys {
		v, err := s.Get(key)
		if errors.Is(err, storage.ErrDataNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	return values, nil
}

// Query supports the "TagName" and "TagName:TagValue" expressions.
func (s *store) Query(expression string, _ ...storage.QueryOption) (storage.Iterator, error) {
	if expression == "" {
		return nil, errors.New("invalid expression format. it must be in the following format: " +
			"TagName:TagValue")
	}

	var (
		rows *sql.Rows
		err  error
	)

	name, value, hasValue := strings.Cut(expression, ":")

	if hasValue {
		rows, err = s.db.Query(`SELECT DISTINCT e.item_key, e.item_value FROM entries e
			JOIN tags t ON t.store = e.store AND t.item_key = e.item_key
			WHERE e.store = ? AND t.tag_name = ? AND t.tag_value = ? ORDER BY e.item_key`, s.name, name, value)
	} else {
		rows, err = s.db.Query(`SELECT DISTINCT e.item_key, e.item_value FROM entries e
			JOIN tags t ON t.store = e.store AND t.item_key = e.item_key
			WHERE e.store = ? AND t.tag_name = ? ORDER BY e.item_key`, s.name, name)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", expression)
	}

	defer rows.Close() //nolint:errcheck

	it := &iterator{store: s, current: -1}

	for rows.Next() {
		var r entry
		if err = rows.Scan(&r.key, &r.value); err != nil {
			return nil, errors.Wrap(err, "failed to scan entry")
		}

		it.entries = append(it.entries, r)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read query results")
	}

	return it, nil
}

func (s *store) Delete(key string) error {
	if key == "" {
		return errors.New("key is mandatory")
	}

	return s.inTx(func(tx *sql.Tx) error {
		return s.delete(tx, key)
	})
}

func (s *store) delete(ex execer, key string) error {
	if _, err := ex.Exec(`DELETE FROM entries WHERE store = ? AND item_key = ?`, s.name, key); err != nil {
		return errors.Wrapf(err, "failed to delete %s", key)
	}

	_, err := ex.Exec(`DELETE FROM tags WHERE store = ? AND item_key = ?`, s.name, key)

	return errors.Wrapf(err, "failed to delete tags of %s", key)
}

func (s *store) Batch(operations []storage.Operation) error {
	if len(operations) == 0 {
		return errors.New("batch requires at least one operation")
	}

	for _, op := range operations {
		if op.Key == "" {
			return errors.New("key cannot be empty")
		}

		if err := checkTags(op.Tags); err != nil {
			return err
		}
	}

	return s.inTx(func(tx *sql.Tx) error {
		for _, op := range operations {
			var err error

			if op.Value == nil {
				err = s.delete(tx, op.Key)
			} else {
				err = s.put(tx, op.Key, op.Value, op.Tags)
			}

			if err != nil {
				return err
			}
		}

		return nil
	})
}

// Flush is a no-op, every write is committed when it returns.
func (s *store) Flush() error {
	return nil
}

func (s *store) Close() error {
	s.close(s.name)

	return nil
}

func (s *store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warnf("rollback on store %s failed: %v", s.name, rbErr)
		}

		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func checkTags(tags []storage.Tag) error {
	for _, t := range tags {
		if strings.Contains(t.Name, ":") {
			return errors.New("tag names cannot contain any ':' characters")
		}
	}

	return nil
}

type entry struct {
	key   string
	value []byte
}

type iterator struct {
	store   *store
	entries []entry
	current int
}

func (i *iterator) Next() (bool, error) {
	if i.current+1 >= len(i.entries) {
		return false, nil
	}

	i.current++

	return true, nil
}

func (i *iterator) Key() (string, error) {
	if i.current < 0 || i.current >= len(i.entries) {
		return "", errors.New("iterator is not positioned on an entry")
	}

	return i.entries[i.current].key, nil
}

func (i *iterator) Value() ([]byte, error) {
	if i.current < 0 || i.current >= len(i.entries) {
		return nil, errors.New("iterator is not positioned on an entry")
	}

	return i.entries[i.current].value, nil
}

func (i *iterator) Tags() ([]storage.Tag, error) {
	key, err := i.Key()
	if err != nil {
		return nil, err
	}

	return i.store.tags(key)
}

func (i *iterator) TotalItems() (int, error) {
	return len(i.entries), nil
}

func (i *iterator) Close() error {
	return nil
}
