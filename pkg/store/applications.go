package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/observability"
)

var applicationOrder = orderColumns{
	fields: map[string]string{
		"updatedAt":         "updated_at",
		"createdAt":         "created_at",
		"submittedDate":     "submitted_date",
		"status":            "status",
		"programName":       "program_name",
		"studyName":         "study_name",
		"studyAbbreviation": "study_abbreviation",
		"applicantName":     "applicant_name",
	},
	fallback: "updated_at",
}

// ApplicationStore reads and writes submission requests
type ApplicationStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewApplicationStore creates an application store. metrics may be nil.
func NewApplicationStore(db *sql.DB, metrics *observability.Metrics) *ApplicationStore {
	return &ApplicationStore{db: db, metrics: metrics}
}

const applicationColumns = `id, status, applicant_id, applicant_name, applicant_email,
	program_name, study_name, study_abbreviation, review_comment,
	submitted_date, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row scanner) (*applications.Application, error) {
	var app applications.Application
	var status string
	var applicant applications.Applicant
	var submitted sql.NullTime

	err := row.Scan(&app.ID, &status, &applicant.ApplicantID, &applicant.ApplicantName, &applicant.ApplicantEmail,
		&app.ProgramName, &app.StudyName, &app.StudyAbbreviation, &app.ReviewComment,
		&submitted, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}

	app.Status = applications.Status(status)
	if applicant.ApplicantID != "" {
		app.Applicant = &applicant
	}
	if submitted.Valid {
		t := submitted.Time
		app.SubmittedDate = &t
	}
	return &app, nil
}

// GetApplication returns the application with id, or ErrNotFound
func (s *ApplicationStore) GetApplication(ctx context.Context, id string) (*applications.Application, error) {
	var app *applications.Application
	err := instrument(s.metrics, "get_application", func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
		var err error
		app, err = scanApplication(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("application %s: %w", id, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		return nil
	})
	return app, err
}

// PutApplication inserts or replaces an application
func (s *ApplicationStore) PutApplication(ctx context.Context, app *applications.Application) error {
	if app == nil || app.ID == "" {
		return errors.New("application ID is required")
	}
	if !app.Status.Valid() {
		return fmt.Errorf("invalid application status %q", app.Status)
	}

	return instrument(s.metrics, "put_application", func() error {
		var applicant applications.Applicant
		if app.Applicant != nil {
			applicant = *app.Applicant
		}
		var submitted sql.NullTime
		if app.SubmittedDate != nil {
			submitted = sql.NullTime{Time: *app.SubmittedDate, Valid: true}
		}

		now := time.Now().UTC()
		if app.CreatedAt.IsZero() {
			app.CreatedAt = now
		}
		app.UpdatedAt = now

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO applications (`+applicationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				status = excluded.status,
				applicant_id = excluded.applicant_id,
				applicant_name = excluded.applicant_name,
				applicant_email = excluded.applicant_email,
				program_name = excluded.program_name,
				study_name = excluded.study_name,
				study_abbreviation = excluded.study_abbreviation,
				review_comment = excluded.review_comment,
				submitted_date = excluded.submitted_date,
				updated_at = excluded.updated_at`,
			app.ID, string(app.Status), applicant.ApplicantID, applicant.ApplicantName, applicant.ApplicantEmail,
			app.ProgramName, app.StudyName, app.StudyAbbreviation, app.ReviewComment,
			submitted, app.CreatedAt, app.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to put application: %w", err)
		}
		return nil
	})
}

// ListApplications returns one page of applications matching filter
func (s *ApplicationStore) ListApplications(ctx context.Context, filter Filter, d listing.FetchDescriptor) (listing.Page[*applications.Application], error) {
	page := listing.Page[*applications.Application]{Items: []*applications.Application{}}

	err := instrument(s.metrics, "list_applications", func() error {
		where, args := filter.where()

		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`+where, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("failed to count applications: %w", err)
		}

		query := fmt.Sprintf(`SELECT %s FROM applications%s %s LIMIT $%d OFFSET $%d`,
			applicationColumns, where, applicationOrder.orderClause(d), len(args)+1, len(args)+2)
		rows, err := s.db.QueryContext(ctx, query, append(args, limit(d), offset(d))...)
		if err != nil {
			return fmt.Errorf("failed to list applications: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			app, err := scanApplication(rows)
			if err != nil {
				return fmt.Errorf("failed to scan application: %w", err)
			}
			page.Items = append(page.Items, app)
		}
		return rows.Err()
	})
	return page, err
}

// CountByStatus returns the number of applications in each status
func (s *ApplicationStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	err := instrument(s.metrics, "count_applications", func() error {
		var err error
		counts, err = countByStatus(ctx, s.db, "applications")
		return err
	})
	return counts, err
}

// where returns the WHERE clause for f and its arguments
func (f Filter) where() (string, []interface{}) {
	if f.Status == "" {
		return "", nil
	}
	return " WHERE status = $1", []interface{}{f.Status}
}

// countByStatus groups table by its status column
func countByStatus(ctx context.Context, db *sql.DB, table string) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM `+table+` GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by status: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", table, err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
