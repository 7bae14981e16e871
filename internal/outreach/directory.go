package outreach

import (
	"context"
	"database/sql"
	"time"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

// StoreDirectory serves recruiter lookups straight from the local store.
type StoreDirectory struct {
	DB *sql.DB
}

func (d StoreDirectory) Find(ctx context.Context, f store.RecruiterFilters, notContactedSince time.Time) ([]domain.Recruiter, error) {
	return store.FindRecruiters(ctx, d.DB, f, notContactedSince)
}
