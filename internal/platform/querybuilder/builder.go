package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// sqlWriter accumulates query text and its positional ($n) arguments.
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) write(parts ...string) {
	for _, part := range parts {
		w.buf.WriteString(part)
	}
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString("$" + strconv.Itoa(len(w.args)))
}

// expr writes a raw fragment, binding each '?' to the next of exprArgs.
func (w *sqlWriter) expr(fragment string, exprArgs []any) {
	next := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '?' && next < len(exprArgs) {
			w.bind(exprArgs[next])
			next++
			continue
		}
		w.buf.WriteByte(fragment[i])
	}
}

func (w *sqlWriter) where(conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.write(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.write(" AND ")
		}
		c.writeSQL(w)
	}
}

func (w *sqlWriter) result() (string, []any, error) {
	return w.buf.String(), w.args, nil
}

type Condition interface {
	writeSQL(w *sqlWriter)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func (c compareCondition) writeSQL(w *sqlWriter) {
	w.write(c.column, " ", c.op, " ")
	w.bind(c.value)
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func NotEq(column string, value any) Condition {
	return compareCondition{column: column, op: "<>", value: value}
}

type inCondition struct {
	column string
	values []any
}

// In matches any of values. An empty list matches nothing.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

// InStrings is In for the common list-of-ids case.
func InStrings(column string, values []string) Condition {
	items := make([]any, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return inCondition{column: column, values: items}
}

func (c inCondition) writeSQL(w *sqlWriter) {
	if len(c.values) == 0 {
		w.write("1=0")
		return
	}
	w.write(c.column, " IN (")
	for i, v := range c.values {
		if i > 0 {
			w.write(", ")
		}
		w.bind(v)
	}
	w.write(")")
}

type isNullCondition struct {
	column string
}

func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) writeSQL(w *sqlWriter) {
	w.write(c.column, " IS NULL")
}

type exprCondition struct {
	fragment string
	args     []any
}

// Expr is a raw condition; '?' marks are bound to args in order.
func Expr(fragment string, args ...any) Condition {
	return exprCondition{fragment: fragment, args: args}
}

func (c exprCondition) writeSQL(w *sqlWriter) {
	w.expr(c.fragment, c.args)
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := &sqlWriter{}
	w.write("SELECT ", strings.Join(b.columns, ", "), " FROM ", b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.write(" ORDER BY ", strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.write(" LIMIT ", strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		w.write(" FOR UPDATE")
	}
	return w.result()
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values appends one row; call it again for multi-row inserts.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix is appended verbatim, e.g. an ON CONFLICT clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := &sqlWriter{}
	w.write("INSERT INTO ", b.table, " (", strings.Join(b.columns, ", "), ") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.write(", ")
		}
		w.write("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.write(", ")
			}
			w.bind(value)
		}
		w.write(")")
	}
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
}

type setClause struct {
	column string
	value  any
	expr   *exprCondition
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

func (b *UpdateBuilder) SetExpr(column, fragment string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, expr: &exprCondition{fragment: fragment, args: args}})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// Suffix is appended after WHERE, e.g. a RETURNING clause.
func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	w := &sqlWriter{}
	w.write("UPDATE ", b.table, " SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.write(", ")
		}
		w.write(s.column, " = ")
		if s.expr != nil {
			w.expr(s.expr.fragment, s.expr.args)
			continue
		}
		w.bind(s.value)
	}
	w.where(b.where)
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to build an unconditional delete.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete without conditions is not allowed")
	}

	w := &sqlWriter{}
	w.write("DELETE FROM ", b.table)
	w.where(b.where)
	return w.result()
}
