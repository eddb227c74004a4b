package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/observability"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

var submissionOrder = orderColumns{
	fields: map[string]string{
		"updatedAt":         "updated_at",
		"createdAt":         "created_at",
		"name":              "name",
		"status":            "status",
		"submitterName":     "submitter_name",
		"dataCommons":       "data_commons",
		"studyAbbreviation": "study_abbreviation",
	},
	fallback: "updated_at",
}

// SubmissionStore reads and writes data submissions
type SubmissionStore struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewSubmissionStore creates a submission store. metrics may be nil.
func NewSubmissionStore(db *sql.DB, metrics *observability.Metrics) *SubmissionStore {
	return &SubmissionStore{db: db, metrics: metrics}
}

const submissionColumns = `id, name, status, submitter_id, submitter_name, data_commons,
	study_id, study_abbreviation, collaborators,
	metadata_validation_status, file_validation_status, cross_submission_status,
	created_at, updated_at`

func scanSubmission(row scanner) (*submissions.Submission, error) {
	var sub submissions.Submission
	var status, collaborators string
	var metadata, file, cross sql.NullString

	err := row.Scan(&sub.ID, &sub.Name, &status, &sub.SubmitterID, &sub.SubmitterName, &sub.DataCommons,
		&sub.StudyID, &sub.StudyAbbreviation, &collaborators,
		&metadata, &file, &cross,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sub.Status = submissions.Status(status)
	if err := decodeList(collaborators, &sub.Collaborators); err != nil {
		return nil, err
	}
	sub.MetadataValidationStatus = validationStatus(metadata)
	sub.FileValidationStatus = validationStatus(file)
	sub.CrossSubmissionStatus = validationStatus(cross)
	return &sub, nil
}

// validationStatus maps NULL to nil: the track has never run
func validationStatus(v sql.NullString) *submissions.ValidationStatus {
	if !v.Valid {
		return nil
	}
	return submissions.StatusPtr(submissions.ValidationStatus(v.String))
}

func nullValidationStatus(v *submissions.ValidationStatus) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

// GetSubmission returns the submission with id, or ErrNotFound
func (s *SubmissionStore) GetSubmission(ctx context.Context, id string) (*submissions.Submission, error) {
	var sub *submissions.Submission
	err := instrument(s.metrics, "get_submission", func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
		var err error
		sub, err = scanSubmission(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("submission %s: %w", id, ErrNotFound)
		} else if err != nil {
			return fmt.Errorf("failed to get submission: %w", err)
		}
		return nil
	})
	return sub, err
}

// PutSubmission inserts or replaces a submission
func (s *SubmissionStore) PutSubmission(ctx context.Context, sub *submissions.Submission) error {
	if sub == nil || sub.ID == "" {
		return errors.New("submission ID is required")
	}

	return instrument(s.metrics, "put_submission", func() error {
		collaborators := sub.Collaborators
		if collaborators == nil {
			collaborators = []submissions.Collaborator{}
		}
		encoded, err := encodeList(collaborators)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = now
		}
		sub.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO submissions (`+submissionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				status = excluded.status,
				submitter_id = excluded.submitter_id,
				submitter_name = excluded.submitter_name,
				data_commons = excluded.data_commons,
				study_id = excluded.study_id,
				study_abbreviation = excluded.study_abbreviation,
				collaborators = excluded.collaborators,
				metadata_validation_status = excluded.metadata_validation_status,
				file_validation_status = excluded.file_validation_status,
				cross_submission_status = excluded.cross_submission_status,
				updated_at = excluded.updated_at`,
			sub.ID, sub.Name, string(sub.Status), sub.SubmitterID, sub.SubmitterName, sub.DataCommons,
			sub.StudyID, sub.StudyAbbreviation, encoded,
			nullValidationStatus(sub.MetadataValidationStatus),
			nullValidationStatus(sub.FileValidationStatus),
			nullValidationStatus(sub.CrossSubmissionStatus),
			sub.CreatedAt, sub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to put submission: %w", err)
		}
		return nil
	})
}

// ListSubmissions returns one page of submissions matching filter
func (s *SubmissionStore) ListSubmissions(ctx context.Context, filter Filter, d listing.FetchDescriptor) (listing.Page[*submissions.Submission], error) {
	page := listing.Page[*submissions.Submission]{Items: []*submissions.Submission{}}

	err := instrument(s.metrics, "list_submissions", func() error {
		where, args := filter.where()

		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`+where, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("failed to count submissions: %w", err)
		}

		query := fmt.Sprintf(`SELECT %s FROM submissions%s %s LIMIT $%d OFFSET $%d`,
			submissionColumns, where, submissionOrder.orderClause(d), len(args)+1, len(args)+2)
		rows, err := s.db.QueryContext(ctx, query, append(args, limit(d), offset(d))...)
		if err != nil {
			return fmt.Errorf("failed to list submissions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			sub, err := scanSubmission(rows)
			if err != nil {
				return fmt.Errorf("failed to scan submission: %w", err)
			}
			page.Items = append(page.Items, sub)
		}
		return rows.Err()
	})
	return page, err
}

// CountByStatus returns the number of submissions in each status
func (s *SubmissionStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	err := instrument(s.metrics, "count_submissions", func() error {
		var err error
		counts, err = countByStatus(ctx, s.db, "submissions")
		return err
	})
	return counts, err
}
