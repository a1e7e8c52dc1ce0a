// Package query composes read queries out of an ordered list of stages: match,
// lookup, derived counts and sums, membership tests, sort and projection. A
// Pipeline compiles to a single SQL statement, so every listing is fetched in
// one round trip to the database no matter how many relations it joins.
//
// Stages only ever select the columns they are asked for. Related rows are never
// hydrated whole.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"videotube/domain"
)

// Relation describes how rows of Table relate to the rows of a pipeline.
// ForeignKey is a column of Table, LocalKey a column of the pipeline's base
// table, or an already qualified column such as "owner.id". Where holds extra
// equality filters on Table.
type Relation struct {
	Table      string
	ForeignKey string
	LocalKey   string
	Where      map[string]interface{}
}

// Pipeline is an ordered set of stages over a base table.
// The zero value is not usable, create one with From.
type Pipeline struct {
	table string

	columns    []string
	selectArgs []interface{}

	joins    []string
	joinArgs []interface{}

	conds     []string
	whereArgs []interface{}

	order []string
}

// From starts a pipeline over table.
func From(table string) *Pipeline {
	return &Pipeline{table: table}
}

// Match keeps only the base rows matching cond. Multiple matches are ANDed.
func (p *Pipeline) Match(cond string, args ...interface{}) *Pipeline {
	p.conds = append(p.conds, "("+cond+")")
	p.whereArgs = append(p.whereArgs, args...)
	return p
}

// Project adds columns of the base table to the result. Qualified columns and
// expressions are taken as they are.
func (p *Pipeline) Project(cols ...string) *Pipeline {
	for _, col := range cols {
		p.columns = append(p.columns, p.column(col))
	}
	return p
}

// Lookup left joins the single row of rel matching each base row under the
// alias as and adds the given fields as "<as>_<field>". Base rows without a
// match are kept and get NULL fields.
func (p *Pipeline) Lookup(as string, rel Relation, fields ...string) *Pipeline {
	on, args := rel.on(as, p.qualify(rel.LocalKey))
	p.joins = append(p.joins, fmt.Sprintf("LEFT JOIN %s AS %s ON %s", rel.Table, as, on))
	p.joinArgs = append(p.joinArgs, args...)
	for _, f := range fields {
		p.columns = append(p.columns, fmt.Sprintf("%s.%s AS %s_%s", as, f, as, f))
	}
	return p
}

// Count adds the number of rel rows related to each base row as column as.
func (p *Pipeline) Count(as string, rel Relation) *Pipeline {
	src := as + "_src"
	on, args := rel.on(src, p.qualify(rel.LocalKey))
	p.columns = append(p.columns,
		fmt.Sprintf("(SELECT COUNT(*) FROM %s AS %s WHERE %s) AS %s", rel.Table, src, on, as))
	p.selectArgs = append(p.selectArgs, args...)
	return p
}

// Sum adds the sum of column over the rel rows related to each base row as
// column as. It is 0 when there are none.
func (p *Pipeline) Sum(as string, rel Relation, column string) *Pipeline {
	src := as + "_src"
	on, args := rel.on(src, p.qualify(rel.LocalKey))
	p.columns = append(p.columns,
		fmt.Sprintf("(SELECT COALESCE(SUM(%s.%s), 0) FROM %s AS %s WHERE %s) AS %s",
			src, column, rel.Table, src, on, as))
	p.selectArgs = append(p.selectArgs, args...)
	return p
}

// Contains adds a boolean column as telling whether any rel row related to the
// base row has column equal to value. An empty value, such as the id of an
// anonymous viewer, is never contained.
func (p *Pipeline) Contains(as string, rel Relation, column, value string) *Pipeline {
	if value == "" {
		p.columns = append(p.columns, fmt.Sprintf("(1 = 0) AS %s", as))
		return p
	}
	src := as + "_src"
	on, args := rel.on(src, p.qualify(rel.LocalKey))
	p.columns = append(p.columns,
		fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s AND %s.%s = ?) AS %s",
			rel.Table, src, on, src, column, as))
	p.selectArgs = append(p.selectArgs, append(args, value)...)
	return p
}

// Sort orders the result by col. Sorts are applied in the order they were added.
func (p *Pipeline) Sort(col string, desc bool) *Pipeline {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	p.order = append(p.order, col+" "+dir)
	return p
}

// SQL returns the compiled statement and its arguments.
func (p *Pipeline) SQL() (string, []interface{}) {
	var b strings.Builder
	cols := p.columns
	if len(cols) == 0 {
		cols = []string{p.table + ".*"}
	}
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	args := append([]interface{}{}, p.selectArgs...)

	from, fromArgs := p.from()
	b.WriteString(from)
	args = append(args, fromArgs...)

	if len(p.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(p.order, ", "))
	}
	return b.String(), args
}

// All runs the pipeline and scans every row into dest, a pointer to a slice.
func (p *Pipeline) All(ctx context.Context, db *gorm.DB, dest interface{}) error {
	sql, args := p.SQL()
	return db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error
}

// First runs the pipeline and scans the first row into dest, a pointer to a
// struct. It reports whether a row was found.
func (p *Pipeline) First(ctx context.Context, db *gorm.DB, dest interface{}) (bool, error) {
	sql, args := p.SQL()
	tx := db.WithContext(ctx).Raw(sql+" LIMIT 1", args...).Scan(dest)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// Paginate scans the rows of page into dest and returns the number of rows
// the unpaginated pipeline matches.
func (p *Pipeline) Paginate(ctx context.Context, db *gorm.DB, page domain.Page, dest interface{}) (int64, error) {
	var total int64
	from, fromArgs := p.from()
	err := db.WithContext(ctx).Raw("SELECT COUNT(*)"+from, fromArgs...).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	sql, args := p.SQL()
	args = append(args, page.Limit, page.Offset())
	if err := db.WithContext(ctx).Raw(sql+" LIMIT ? OFFSET ?", args...).Scan(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Aggregate folds the rows of the pipeline into a single row made of cols,
// which may refer to the columns of the pipeline through the alias "agg".
func (p *Pipeline) Aggregate(ctx context.Context, db *gorm.DB, dest interface{}, cols ...string) error {
	sql, args := p.SQL()
	outer := fmt.Sprintf("SELECT %s FROM (%s) AS agg", strings.Join(cols, ", "), sql)
	return db.WithContext(ctx).Raw(outer, args...).Scan(dest).Error
}

// from renders everything between the select list and the order clause.
func (p *Pipeline) from() (string, []interface{}) {
	var b strings.Builder
	b.WriteString(" FROM ")
	b.WriteString(p.table)
	for _, j := range p.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(p.conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.conds, " AND "))
	}
	args := append([]interface{}{}, p.joinArgs...)
	return b.String(), append(args, p.whereArgs...)
}

func (p *Pipeline) qualify(col string) string {
	if strings.Contains(col, ".") {
		return col
	}
	return p.table + "." + col
}

// column qualifies a bare column and keeps its name in the result.
func (p *Pipeline) column(col string) string {
	if strings.ContainsAny(col, ". (") {
		return col
	}
	return fmt.Sprintf("%s.%s AS %s", p.table, col, col)
}

// on renders the join condition of rel under alias against local. Extra
// filters are emitted in key order so that the statement is stable.
func (rel Relation) on(alias, local string) (string, []interface{}) {
	parts := []string{fmt.Sprintf("%s.%s = %s", alias, rel.ForeignKey, local)}
	keys := make([]string, 0, len(rel.Where))
	for k := range rel.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s.%s = ?", alias, k))
		args = append(args, rel.Where[k])
	}
	return strings.Join(parts, " AND "), args
}
