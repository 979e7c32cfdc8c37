package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/filmclub/internal/attr"
)

type opKind int

const (
	opPut opKind = iota + 1
	opUpdate
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opPut:
		return "Put"
	case opUpdate:
		return "Update"
	case opDelete:
		return "Delete"
	default:
		return fmt.Sprintf("opKind(%d)", int(k))
	}
}

// TransactItem is one write inside a TransactWrite call.
// Build it with Put, Update or Delete and optionally guard it with If.
type TransactItem struct {
	kind      opKind
	key       Key
	item      attr.Item
	actions   []Action
	condition Condition
}

// Put replaces the item stored under key. Key attributes in item are ignored.
func Put(key Key, item attr.Item) TransactItem {
	return TransactItem{kind: opPut, key: key, item: item}
}

// Update applies actions to the item stored under key, creating it when missing.
func Update(key Key, actions ...Action) TransactItem {
	return TransactItem{kind: opUpdate, key: key, actions: actions}
}

// Delete removes the item stored under key. Deleting a missing item is a no-op.
func Delete(key Key) TransactItem {
	return TransactItem{kind: opDelete, key: key}
}

// If returns a copy of the write guarded by cond.
func (ti TransactItem) If(cond Condition) TransactItem {
	ti.condition = cond
	return ti
}

// Key returns the key the write targets.
func (ti TransactItem) Key() Key {
	return ti.key
}

// String describes the write for logs.
func (ti TransactItem) String() string {
	s := fmt.Sprintf("%s %s/%s", ti.kind, ti.key.PK, ti.key.SK)
	if ti.condition != nil {
		s += " IF " + ti.condition.String()
	}
	return s
}

// Action is one modification applied by Update.
type Action interface {
	apply(item attr.Item) error
}

type setAction struct {
	name  string
	value attr.Value
}

// Set assigns value to the attribute.
func Set(name string, value attr.Value) Action {
	return setAction{name: name, value: value}
}

func (a setAction) apply(item attr.Item) error {
	if a.value == nil {
		return fmt.Errorf("set %s: nil value", a.name)
	}
	if ss, ok := a.value.(attr.StringSet); ok && len(ss) == 0 {
		return fmt.Errorf("set %s: %w", a.name, attr.ErrEmptySet)
	}
	item[a.name] = a.value
	return nil
}

type addAction struct {
	name  string
	delta int64
}

// Add adds delta to a numeric attribute. A missing attribute counts as zero.
func Add(name string, delta int64) Action {
	return addAction{name: name, delta: delta}
}

func (a addAction) apply(item attr.Item) error {
	var n attr.Int
	if v, ok := item[a.name]; ok {
		cur, isInt := v.(attr.Int)
		if !isInt {
			return fmt.Errorf("add %s: expected N, got %s", a.name, attr.Kind(v))
		}
		n = cur
	}
	item[a.name] = n + attr.Int(a.delta)
	return nil
}

type addToSetAction struct {
	name    string
	members []string
}

// AddToSet adds members to a string set attribute. A missing or null
// attribute counts as the empty set.
func AddToSet(name string, members ...string) Action {
	return addToSetAction{name: name, members: members}
}

func (a addToSetAction) apply(item attr.Item) error {
	if len(a.members) == 0 {
		return fmt.Errorf("add to set %s: %w", a.name, attr.ErrEmptySet)
	}
	set := attr.NewStringSet(a.members...)
	if v, ok := item[a.name]; ok {
		switch cur := v.(type) {
		case attr.Null:
		case attr.StringSet:
			set = cur.Union(set)
		default:
			return fmt.Errorf("add to set %s: expected SS or NULL, got %s", a.name, attr.Kind(v))
		}
	}
	item[a.name] = set
	return nil
}

// TransactWrite applies every write atomically.
//
// All conditions are evaluated inside one SQLite transaction before anything
// is written. If any condition fails the transaction is rolled back and a
// *TransactionCanceledError is returned. A key may appear at most once.
func (s *Store) TransactWrite(ctx context.Context, items []TransactItem) error {
	if len(items) == 0 {
		return fmt.Errorf("transact write: %w", ErrEmptyTransaction)
	}

	seen := make(map[Key]struct{}, len(items))
	for _, ti := range items {
		if ti.kind == 0 {
			return fmt.Errorf("transact write: item for %s/%s has no operation", ti.key.PK, ti.key.SK)
		}
		if err := ti.key.validate(); err != nil {
			return fmt.Errorf("transact write: %w", err)
		}
		if _, dup := seen[ti.key]; dup {
			return fmt.Errorf("transact write: %w: %s/%s", ErrDuplicateKey, ti.key.PK, ti.key.SK)
		}
		seen[ti.key] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transact write: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	current := make([]attr.Item, len(items))
	reasons := make([]CancellationReason, len(items))
	canceled := false
	for i, ti := range items {
		item, _, err := getItem(ctx, tx, ti.key)
		if err != nil {
			return fmt.Errorf("transact write: %w", err)
		}
		current[i] = item

		reasons[i] = ReasonNone
		if ti.condition != nil && !ti.condition.Eval(item) {
			reasons[i] = ReasonConditionalCheckFailed
			canceled = true
		}
	}
	if canceled {
		return &TransactionCanceledError{Reasons: reasons}
	}

	for i, ti := range items {
		if err := applyWrite(ctx, tx, ti, current[i]); err != nil {
			return fmt.Errorf("transact write: %s: %w", ti, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transact write: commit: %w", err)
	}
	return nil
}

func applyWrite(ctx context.Context, tx *sql.Tx, ti TransactItem, current attr.Item) error {
	switch ti.kind {
	case opPut:
		return putItem(ctx, tx, ti.key, ti.item)

	case opUpdate:
		next := attr.Item{}
		if current != nil {
			next = current.Clone()
		}
		for _, a := range ti.actions {
			if err := a.apply(next); err != nil {
				return err
			}
		}
		return putItem(ctx, tx, ti.key, next)

	case opDelete:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM items WHERE pk = ? AND sk = ?`, ti.key.PK, ti.key.SK,
		); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown operation %s", ti.kind)
	}
}

func putItem(ctx context.Context, tx *sql.Tx, key Key, item attr.Item) error {
	body := item.Clone()
	delete(body, AttrPK)
	delete(body, AttrSK)

	data, err := body.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (pk, sk, attrs, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(pk, sk) DO UPDATE SET
			attrs = excluded.attrs,
			updated_at = excluded.updated_at
	`, key.PK, key.SK, string(data))
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}
