// Package repository implements the resource collections over gorm. Capped
// inserts recount inside a serializable transaction so the lifetime cap holds
// under concurrent create requests for the same principal.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cappedInsertAttempts bounds retries when Postgres aborts a serializable
// transaction on conflict.
const cappedInsertAttempts = 3

type Repository struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.Named("resource.repository"),
	}
}

var _ resourcedomain.Repository = (*Repository)(nil)

// CountOwned returns the live cardinality of a principal's collection.
func (r *Repository) CountOwned(ctx context.Context, principal string, kind resourcedomain.Kind) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("principal = ?", principal).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", resourcedomain.ErrResourceUnavailable, err)
	}
	return count, nil
}

// CreateResume inserts a resume unless the principal already owns limit
// documents. Count and insert share one transaction, which is what makes the
// lifetime cap hold when creates race.
func (r *Repository) CreateResume(ctx context.Context, record *resourcedomain.Resume, limit int64) error {
	return r.createCapped(ctx, record.Principal, resourcedomain.KindResume, limit, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

// CreateCoverLetter mirrors CreateResume for the cover letter collection.
func (r *Repository) CreateCoverLetter(ctx context.Context, record *resourcedomain.CoverLetter, limit int64) error {
	return r.createCapped(ctx, record.Principal, resourcedomain.KindCoverLetter, limit, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

// createCapped runs count-then-insert at serializable isolation so two
// concurrent creates for one principal cannot both observe limit-1 rows and
// both commit. Postgres aborts one of the conflicting transactions with
// SQLSTATE 40001; that loser is retried and recounts against the winner's
// committed row. sqlite serializes writers and never hits the retry path.
func (r *Repository) createCapped(
	ctx context.Context,
	principal string,
	kind resourcedomain.Kind,
	limit int64,
	insert func(tx *gorm.DB) error,
) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if limit >= 0 {
				var count int64
				if err := tx.Table(table).
					Where("principal = ?", principal).
					Count(&count).Error; err != nil {
					return err
				}
				if count >= limit {
					return resourcedomain.ErrLifetimeCapReached
				}
			}
			return insert(tx)
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})

		if err == nil {
			return nil
		}
		if errors.Is(err, resourcedomain.ErrLifetimeCapReached) {
			return err
		}
		if attempt < cappedInsertAttempts && isSerializationFailure(err) {
			r.log.Debug("capped insert serialization conflict, retrying",
				zap.String("principal", principal),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return fmt.Errorf("%w: %v", resourcedomain.ErrResourceUnavailable, err)
	}
}

// isSerializationFailure reports whether the database aborted the transaction
// to preserve serializable isolation (Postgres SQLSTATE 40001).
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(strings.ToLower(msg), "could not serialize access")
}

func (r *Repository) ListResumes(ctx context.Context, principal string) ([]resourcedomain.Resume, error) {
	var records []resourcedomain.Resume
	err := r.db.WithContext(ctx).
		Where("principal = ?", principal).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resourcedomain.ErrResourceUnavailable, err)
	}
	return records, nil
}

func (r *Repository) ListCoverLetters(ctx context.Context, principal string) ([]resourcedomain.CoverLetter, error) {
	var records []resourcedomain.CoverLetter
	err := r.db.WithContext(ctx).
		Where("principal = ?", principal).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resourcedomain.ErrResourceUnavailable, err)
	}
	return records, nil
}

func (r *Repository) DeleteResume(ctx context.Context, principal string, id snowflake.ID) error {
	return r.deleteOwned(ctx, "resumes", principal, id)
}

func (r *Repository) DeleteCoverLetter(ctx context.Context, principal string, id snowflake.ID) error {
	return r.deleteOwned(ctx, "cover_letters", principal, id)
}

func (r *Repository) deleteOwned(ctx context.Context, table, principal string, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Exec(
		fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND principal = ?`, table),
		id, principal,
	)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", resourcedomain.ErrResourceUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return resourcedomain.ErrNotFound
	}
	return nil
}

func tableFor(kind resourcedomain.Kind) (string, error) {
	switch kind {
	case resourcedomain.KindResume:
		return "resumes", nil
	case resourcedomain.KindCoverLetter:
		return "cover_letters", nil
	default:
		return "", resourcedomain.ErrInvalidKind
	}
}
