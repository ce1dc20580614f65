// Package report computes hiring metrics over validated data. These are
// read-only aggregate queries downstream of ingestion.
package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service runs reporting queries against the relational store.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a reporting service over the given pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// QuarterHires is one row of the hires-by-quarter pivot.
type QuarterHires struct {
	Department string `json:"department"`
	Job        string `json:"job"`
	Q1         int64  `json:"q1"`
	Q2         int64  `json:"q2"`
	Q3         int64  `json:"q3"`
	Q4         int64  `json:"q4"`
}

const hiresByQuarterSQL = `
	WITH base AS (
		SELECT d.name AS department, j.name AS job,
		       EXTRACT(QUARTER FROM e.dt)::int AS qtr
		FROM app.employees e
		JOIN app.departments d ON d.id = e.department_id
		JOIN app.jobs j        ON j.id = e.job_id
		WHERE EXTRACT(YEAR FROM e.dt) = $1
	)
	SELECT department, job,
	       SUM(CASE WHEN qtr = 1 THEN 1 ELSE 0 END) AS q1,
	       SUM(CASE WHEN qtr = 2 THEN 1 ELSE 0 END) AS q2,
	       SUM(CASE WHEN qtr = 3 THEN 1 ELSE 0 END) AS q3,
	       SUM(CASE WHEN qtr = 4 THEN 1 ELSE 0 END) AS q4
	FROM base
	GROUP BY department, job
	ORDER BY department ASC, job ASC`

// HiresByQuarter returns, per department and job, how many employees were
// hired in each quarter of the given year.
func (s *Service) HiresByQuarter(ctx context.Context, year int) ([]QuarterHires, error) {
	rows, err := s.pool.Query(ctx, hiresByQuarterSQL, year)
	if err != nil {
		return nil, fmt.Errorf("hires by quarter: %w", err)
	}
	defer rows.Close()

	var out []QuarterHires
	for rows.Next() {
		var qh QuarterHires
		if err := rows.Scan(&qh.Department, &qh.Job, &qh.Q1, &qh.Q2, &qh.Q3, &qh.Q4); err != nil {
			return nil, err
		}
		out = append(out, qh)
	}
	return out, rows.Err()
}

// DepartmentHires is one row of the above-average-departments report.
type DepartmentHires struct {
	ID         int64  `json:"id"`
	Department string `json:"department"`
	Hired      int64  `json:"hired"`
}

const departmentsAboveAvgSQL = `
	WITH per_dept AS (
		SELECT e.department_id AS id, COUNT(*) AS hired
		FROM app.employees e
		WHERE EXTRACT(YEAR FROM e.dt) = $1
		GROUP BY e.department_id
	), avg_all AS (
		SELECT AVG(hired)::numeric AS avg_hired FROM per_dept
	)
	SELECT d.id, d.name AS department, p.hired
	FROM per_dept p
	JOIN app.departments d ON d.id = p.id
	CROSS JOIN avg_all a
	WHERE p.hired > a.avg_hired
	ORDER BY p.hired DESC, d.name ASC`

// DepartmentsAboveAverage returns the departments that hired more people
// in the given year than the cross-department average.
func (s *Service) DepartmentsAboveAverage(ctx context.Context, year int) ([]DepartmentHires, error) {
	rows, err := s.pool.Query(ctx, departmentsAboveAvgSQL, year)
	if err != nil {
		return nil, fmt.Errorf("departments above average: %w", err)
	}
	defer rows.Close()

	var out []DepartmentHires
	for rows.Next() {
		var dh DepartmentHires
		if err := rows.Scan(&dh.ID, &dh.Department, &dh.Hired); err != nil {
			return nil, err
		}
		out = append(out, dh)
	}
	return out, rows.Err()
}
