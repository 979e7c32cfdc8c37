package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/filmclub/internal/attr"
)

// Key attribute names added to every item returned by the store.
const (
	AttrPK = "PK"
	AttrSK = "SK"
)

// defaultPageSize is the page size QueryAll uses when the query sets no limit.
const defaultPageSize = 100

// Key addresses one item.
type Key struct {
	PK string
	SK string
}

func (k Key) validate() error {
	if k.PK == "" || k.SK == "" {
		return fmt.Errorf("key %q/%q: PK and SK are required", k.PK, k.SK)
	}
	return nil
}

// Query selects the items of one partition whose SK starts with Prefix.
type Query struct {
	PK     string
	Prefix string

	// Reverse returns items in descending SK order.
	Reverse bool

	// Limit caps the page size. Zero means no limit.
	Limit int

	// StartKey resumes after this SK (exclusive). Use Page.LastKey.
	StartKey string
}

// Page is one page of query results.
type Page struct {
	Items []attr.Item

	// LastKey is the SK of the last item when more items remain, else empty.
	LastKey string
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetItem returns the item stored under key.
// The boolean is false (and the item nil) when no item exists.
func (s *Store) GetItem(ctx context.Context, key Key) (attr.Item, bool, error) {
	if err := key.validate(); err != nil {
		return nil, false, fmt.Errorf("get item: %w", err)
	}
	item, ok, err := getItem(ctx, s.db, key)
	if err != nil {
		return nil, false, fmt.Errorf("get item: %w", err)
	}
	return item, ok, nil
}

func getItem(ctx context.Context, q queryer, key Key) (attr.Item, bool, error) {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT attrs FROM items WHERE pk = ? AND sk = ?`, key.PK, key.SK,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query %s/%s: %w", key.PK, key.SK, err)
	}

	item, err := decodeItem(key, data)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// Query returns one page of items in SK order.
func (s *Store) Query(ctx context.Context, q Query) (Page, error) {
	if q.PK == "" {
		return Page{}, errors.New("query: PK is required")
	}
	if q.Limit < 0 {
		return Page{}, fmt.Errorf("query: negative limit %d", q.Limit)
	}
	if q.StartKey != "" && !strings.HasPrefix(q.StartKey, q.Prefix) {
		return Page{}, fmt.Errorf("query: %w: %q", ErrInvalidStartKey, q.StartKey)
	}

	var b strings.Builder
	args := []any{q.PK}
	b.WriteString(`SELECT sk, attrs FROM items WHERE pk = ?`)

	if q.Prefix != "" {
		b.WriteString(` AND sk >= ?`)
		args = append(args, q.Prefix)
		if end, ok := prefixEnd(q.Prefix); ok {
			b.WriteString(` AND sk < ?`)
			args = append(args, end)
		}
	}

	if q.StartKey != "" {
		if q.Reverse {
			b.WriteString(` AND sk < ?`)
		} else {
			b.WriteString(` AND sk > ?`)
		}
		args = append(args, q.StartKey)
	}

	if q.Reverse {
		b.WriteString(` ORDER BY sk DESC`)
	} else {
		b.WriteString(` ORDER BY sk ASC`)
	}

	// Fetch one extra row to learn whether another page exists.
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit+1)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return Page{}, fmt.Errorf("query %s/%s*: %w", q.PK, q.Prefix, err)
	}
	defer rows.Close()

	var (
		page   Page
		lastSK string
	)
	for rows.Next() {
		var sk, data string
		if err := rows.Scan(&sk, &data); err != nil {
			return Page{}, fmt.Errorf("scan item: %w", err)
		}
		if q.Limit > 0 && len(page.Items) == q.Limit {
			page.LastKey = lastSK
			break
		}
		item, err := decodeItem(Key{PK: q.PK, SK: sk}, data)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, item)
		lastSK = sk
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate items: %w", err)
	}

	// Return empty slice instead of nil
	if page.Items == nil {
		page.Items = []attr.Item{}
	}
	return page, nil
}

// QueryAll follows LastKey until the query is exhausted.
// q.Limit is used as the page size.
func (s *Store) QueryAll(ctx context.Context, q Query) ([]attr.Item, error) {
	if q.Limit == 0 {
		q.Limit = defaultPageSize
	}

	items := []attr.Item{}
	for {
		page, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if page.LastKey == "" {
			return items, nil
		}
		q.StartKey = page.LastKey
	}
}

func decodeItem(key Key, data string) (attr.Item, error) {
	var item attr.Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, fmt.Errorf("decode item %s/%s: %w", key.PK, key.SK, err)
	}
	if item == nil {
		item = attr.Item{}
	}
	item[AttrPK] = attr.String(key.PK)
	item[AttrSK] = attr.String(key.SK)
	return item, nil
}

// prefixEnd returns the smallest string greater than every string with the
// given prefix. ok is false when no such bound exists.
func prefixEnd(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}
