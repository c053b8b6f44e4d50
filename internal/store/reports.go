// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package store

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Report records one user reporting another for moderator review.
type Report struct {
	ID         ulid.ULID
	ReporterID ulid.ULID
	ReportedID ulid.ULID
	ContextID  ulid.ULID
	Reason     string
	CreatedAt  time.Time
}

// ReportRepository persists moderation reports using PostgreSQL.
type ReportRepository struct {
	db DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create stores a new report.
func (r *ReportRepository) Create(ctx context.Context, rep *Report) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reports (id, reporter_id, reported_id, context_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		rep.ID.String(),
		rep.ReporterID.String(),
		rep.ReportedID.String(),
		rep.ContextID.String(),
		rep.Reason,
		rep.CreatedAt,
	)
	if err != nil {
		return oops.Code("REPORT_CREATE_FAILED").
			With("operation", "insert report").
			With("reported_id", rep.ReportedID.String()).
			Wrap(err)
	}
	return nil
}

// CountAgainst returns how many reports have been filed against a user.
func (r *ReportRepository) CountAgainst(ctx context.Context, reportedID ulid.ULID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM reports WHERE reported_id = $1
	`, reportedID.String()).Scan(&count)
	if err != nil {
		return 0, oops.Code("REPORT_COUNT_FAILED").
			With("reported_id", reportedID.String()).
			Wrap(err)
	}
	return count, nil
}
