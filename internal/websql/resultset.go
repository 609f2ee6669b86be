package websql

// Column is one named value of a Row.
type Column struct {
	Name  string
	Value any
}

// Row is an ordered list of columns as returned by the engine.
type Row struct {
	Columns []Column
}

// Get returns the value of the column called name. When several columns
// share a name the last one wins, as it would in a mapping.
func (r Row) Get(name string) (any, bool) {
	for i := len(r.Columns) - 1; i >= 0; i-- {
		if r.Columns[i].Name == name {
			return r.Columns[i].Value, true
		}
	}
	return nil, false
}

// Map returns the row as a column name to value mapping.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for _, c := range r.Columns {
		m[c.Name] = c.Value
	}
	return m
}

// RowList is the ordered, 0-indexed collection of rows of a ResultSet.
type RowList struct {
	rows []Row
}

// Len returns the number of rows.
func (l *RowList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.rows)
}

// Item returns the row at position i. For i outside [0, Len()) it returns
// the zero Row and false.
func (l *RowList) Item(i int) (Row, bool) {
	if i < 0 || i >= l.Len() {
		return Row{}, false
	}
	return l.rows[i], true
}

// All returns a copy of every row in order.
func (l *RowList) All() []Row {
	rows := make([]Row, l.Len())
	if l != nil {
		copy(rows, l.rows)
	}
	return rows
}

// ResultSet is the outcome of one statement.
type ResultSet struct {
	// InsertID is the row id assigned by an insert, 0 otherwise.
	InsertID int64
	// RowsAffected is the number of rows changed by the statement.
	RowsAffected int64
	Rows         *RowList
}

// newRowList pairs every positional row value with its column name.
func newRowList(columns []string, values [][]any) *RowList {
	rows := make([]Row, 0, len(values))
	for _, value := range values {
		row := Row{Columns: make([]Column, 0, len(columns))}
		for i, name := range columns {
			var v any
			if i < len(value) {
				v = value[i]
			}
			row.Columns = append(row.Columns, Column{Name: name, Value: v})
		}
		rows = append(rows, row)
	}
	return &RowList{rows: rows}
}
