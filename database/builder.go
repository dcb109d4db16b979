package database

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

// Comparison operators accepted by WhereOp.
var allowedOperators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
}

// QueryBuilder provides a fluent, type-safe API for building queries over a bun model.
// It runs against a *DB or a bun.Tx; queries inside a transaction are never retried.
type QueryBuilder[T any] struct {
	db bun.IDB

	wheres    []*WhereClause
	orders    []*OrderClause
	relations []string
	limitVal  *int
	offsetVal *int

	timeout time.Duration
	retry   bool
}

// WhereClause represents a WHERE condition
type WhereClause struct {
	Column   string
	Operator string // comparison operator, "IN" or "LIKE"
	Value    any
}

// OrderClause represents an ORDER BY clause
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// Query creates a new QueryBuilder instance
func Query[T any](db bun.IDB) *QueryBuilder[T] {
	_, inTx := db.(bun.Tx)
	return &QueryBuilder[T]{db: db, retry: !inTx}
}

// Where adds an equality condition
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	return q.WhereOp(column, "=", value)
}

// WhereOp adds a comparison condition. Unknown operators fall back to equality.
func (q *QueryBuilder[T]) WhereOp(column, operator string, value any) *QueryBuilder[T] {
	if _, ok := allowedOperators[operator]; !ok {
		operator = "="
	}
	q.wheres = append(q.wheres, &WhereClause{Column: column, Operator: operator, Value: value})
	return q
}

// WhereIn adds an IN condition. An empty value list matches nothing.
func (q *QueryBuilder[T]) WhereIn(column string, values []any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{Column: column, Operator: "IN", Value: values})
	return q
}

// WhereLike adds a case-insensitive substring match on column.
func (q *QueryBuilder[T]) WhereLike(column, term string) *QueryBuilder[T] {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	q.wheres = append(q.wheres, &WhereClause{Column: column, Operator: "LIKE", Value: pattern})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	if direction != DESC {
		direction = ASC
	}
	q.orders = append(q.orders, &OrderClause{Column: column, Direction: direction})
	return q
}

// Limit sets the LIMIT clause
func (q *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	q.limitVal = &limit
	return q
}

// Offset sets the OFFSET clause
func (q *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	q.offsetVal = &offset
	return q
}

// With preloads a bun relation such as "Category"
func (q *QueryBuilder[T]) With(relation string) *QueryBuilder[T] {
	q.relations = append(q.relations, relation)
	return q
}

// Timeout bounds every statement the builder executes
func (q *QueryBuilder[T]) Timeout(duration time.Duration) *QueryBuilder[T] {
	q.timeout = duration
	return q
}

// hasEmptyIn reports whether an IN condition with no values makes the query match nothing.
func (q *QueryBuilder[T]) hasEmptyIn() bool {
	for _, w := range q.wheres {
		if w.Operator == "IN" {
			if values, _ := w.Value.([]any); len(values) == 0 {
				return true
			}
		}
	}
	return false
}

func (q *QueryBuilder[T]) applySelect(query *bun.SelectQuery, withPaging bool) *bun.SelectQuery {
	for _, w := range q.wheres {
		switch w.Operator {
		case "IN":
			query = query.Where("?TableAlias.? IN (?)", bun.Ident(w.Column), bun.In(w.Value))
		case "LIKE":
			query = query.Where("LOWER(?TableAlias.?) LIKE ? ESCAPE '\\'", bun.Ident(w.Column), w.Value)
		default:
			query = query.Where("?TableAlias.? "+w.Operator+" ?", bun.Ident(w.Column), w.Value)
		}
	}

	for _, rel := range q.relations {
		query = query.Relation(rel)
	}

	if !withPaging {
		return query
	}

	for _, o := range q.orders {
		query = query.OrderExpr("?TableAlias.? "+string(o.Direction), bun.Ident(o.Column))
	}
	if q.limitVal != nil {
		query = query.Limit(*q.limitVal)
	}
	if q.offsetVal != nil {
		query = query.Offset(*q.offsetVal)
	}
	return query
}

func (q *QueryBuilder[T]) applyUpdate(query *bun.UpdateQuery) *bun.UpdateQuery {
	for _, w := range q.wheres {
		switch w.Operator {
		case "IN":
			query = query.Where("? IN (?)", bun.Ident(w.Column), bun.In(w.Value))
		case "LIKE":
			query = query.Where("LOWER(?) LIKE ? ESCAPE '\\'", bun.Ident(w.Column), w.Value)
		default:
			query = query.Where("? "+w.Operator+" ?", bun.Ident(w.Column), w.Value)
		}
	}
	return query
}

func (q *QueryBuilder[T]) applyDelete(query *bun.DeleteQuery) *bun.DeleteQuery {
	for _, w := range q.wheres {
		switch w.Operator {
		case "IN":
			query = query.Where("? IN (?)", bun.Ident(w.Column), bun.In(w.Value))
		case "LIKE":
			query = query.Where("LOWER(?) LIKE ? ESCAPE '\\'", bun.Ident(w.Column), w.Value)
		default:
			query = query.Where("? "+w.Operator+" ?", bun.Ident(w.Column), w.Value)
		}
	}
	return query
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
