// Package demo runs the employees walkthrough used by the qwsql .demo
// command: probe the schema, populate it when missing, query it and clean
// up, each step chained from the success callback of the previous one.
package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/nsqlite/quickwebsql/internal/websql"
)

// Department whose employees are queried.
const queryDepartment = 3

// Employee is one row of the demo query.
type Employee struct {
	Name       string
	Department string
}

// Report receives the progress messages of the walkthrough.
type Report func(msg string)

// Run runs the walkthrough on db and returns the employees of the queried
// department. It blocks until the last transaction finished or ctx is done.
func Run(ctx context.Context, db *websql.Database, report Report) ([]Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if report == nil {
		report = func(string) {}
	}

	r := &runner{
		db:     db,
		report: report,
		done:   make(chan error, 1),
	}
	r.start()

	select {
	case err := <-r.done:
		return r.employees, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type runner struct {
	db        *websql.Database
	report    Report
	done      chan error
	employees []Employee
}

func (r *runner) fail(err *websql.EngineError) {
	r.report("Error: " + err.Message)
	r.finish(err)
}

// finish reports the outcome of the walkthrough. Only the first one counts.
func (r *runner) finish(err error) {
	select {
	case r.done <- err:
	default:
	}
}

// start probes the Version table. Both outcomes continue with prepare: the
// probe failing only means the schema is not there yet.
func (r *runner) start() {
	r.report("Database integrity check")
	r.db.Transaction(func(tx *websql.Tx) {
		tx.ExecuteSQL(
			"SELECT 1 FROM Version LIMIT 1", nil,
			func(*websql.Tx, *websql.ResultSet) { r.prepare() },
			func(_ *websql.Tx, err *websql.EngineError) bool {
				r.report("Database not yet ready ... populating data")
				r.prepare()
				return false
			},
		)
	}, r.fail, nil)
}

func (r *runner) prepare() {
	r.db.Transaction(r.populate, r.fail, func() {
		r.report("Database populated ... executing query ...")
		r.db.Transaction(r.query, r.fail, func() {
			r.report("Processing completed")
			r.db.Transaction(cleanup, r.fail, func() {
				r.report("Tables dropped")
				r.finish(nil)
			})
		})
	})
}

// reportAndContinue lets a failing schema statement be reported without
// aborting.
func (r *runner) reportAndContinue(_ *websql.Tx, err *websql.EngineError) bool {
	r.report("Error: " + err.Message)
	return false
}

func (r *runner) populate(tx *websql.Tx) {
	r.report("Executing DROP statements")
	dropTables(tx)

	r.report("Executing CREATE statements")
	tx.ExecuteSQL(
		`CREATE TABLE IF NOT EXISTS Version (
			version_id INTEGER PRIMARY KEY NOT NULL
		)`, nil, nil, r.reportAndContinue,
	)
	tx.ExecuteSQL(
		`CREATE TABLE IF NOT EXISTS Departments (
			department_id INTEGER PRIMARY KEY NOT NULL,
			name VARCHAR(30)
		)`, nil, nil, r.reportAndContinue,
	)
	tx.ExecuteSQL(
		`CREATE TABLE IF NOT EXISTS Offices (
			office_id INTEGER PRIMARY KEY NOT NULL,
			name VARCHAR(20),
			longitude FLOAT,
			latitude FLOAT
		)`, nil, nil, r.reportAndContinue,
	)
	tx.ExecuteSQL(
		`CREATE TABLE IF NOT EXISTS Employees (
			employee_id INTEGER PRIMARY KEY NOT NULL,
			name VARCHAR(55),
			office INTEGER,
			department INTEGER,
			FOREIGN KEY (office) REFERENCES Offices (office_id),
			FOREIGN KEY (department) REFERENCES Departments (department_id)
		)`, nil, nil, nil,
	)

	r.report("Executing INSERT statements")
	for _, name := range []string{"Client Services", "Investor Services", "Shipping", "Direct Sales"} {
		tx.ExecuteSQL("INSERT INTO Departments (name) VALUES (?)", []any{name}, nil, nil)
	}

	offices := []struct {
		name                string
		longitude, latitude float64
	}{
		{"Denver", 59.8, 34.0},
		{"Warsaw", 15.7, 54.0},
		{"Berlin", 35.3, 12.0},
		{"Paris", 10.7, 14.0},
	}
	for _, o := range offices {
		tx.ExecuteSQL(
			"INSERT INTO Offices (name, longitude, latitude) VALUES (?, ?, ?)",
			[]any{o.name, o.longitude, o.latitude}, nil, nil,
		)
	}

	employees := []struct {
		name               string
		office, department int
	}{
		{"Sylvester Stallone", 2, 4},
		{"Elvis Presley", 2, 4},
		{"Leslie Nelson", 3, 4},
		{"Fidel Castro", 3, 3},
		{"Bill Clinton", 1, 3},
		{"Margaret Thatcher", 1, 3},
		{"Donald Trump", 1, 3},
		{"Zero\x00Null", 1, 3},
		{"Dr DRE", 2, 2},
		{"Samantha Fox", 2, 1},
	}
	for _, e := range employees {
		tx.ExecuteSQL(
			"INSERT INTO Employees (name, office, department) VALUES (?, ?, ?)",
			[]any{e.name, e.office, e.department}, nil, nil,
		)
	}
}

func (r *runner) query(tx *websql.Tx) {
	tx.ExecuteSQL(
		`SELECT a.name, b.name AS deptName
		FROM Employees a, Departments b
		WHERE a.department = b.department_id AND a.department = ?
		ORDER BY a.employee_id`,
		[]any{queryDepartment},
		func(_ *websql.Tx, rs *websql.ResultSet) {
			r.report("Query completed")
			for _, row := range rs.Rows.All() {
				employee, err := toEmployee(row)
				if err != nil {
					panic(err)
				}
				r.report(fmt.Sprintf("Employee: %q, Department: %q", employee.Name, employee.Department))
				r.employees = append(r.employees, employee)
			}
		},
		nil,
	)
}

func cleanup(tx *websql.Tx) {
	dropTables(tx)
}

func dropTables(tx *websql.Tx) {
	tx.ExecuteSQL("DROP TABLE IF EXISTS Employees", nil, nil, nil)
	tx.ExecuteSQL("DROP TABLE IF EXISTS Offices", nil, nil, nil)
	tx.ExecuteSQL("DROP TABLE IF EXISTS Departments", nil, nil, nil)
}

func toEmployee(row websql.Row) (Employee, error) {
	name, _ := row.Get("name")
	dept, _ := row.Get("deptName")

	nameStr, ok := name.(string)
	if !ok {
		return Employee{}, errors.New("employee name is not a string")
	}
	deptStr, ok := dept.(string)
	if !ok {
		return Employee{}, errors.New("department name is not a string")
	}
	return Employee{Name: nameStr, Department: deptStr}, nil
}
