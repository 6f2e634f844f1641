// Package domain contains the resource collections whose cardinality doubles
// as the lifetime caps for creation actions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind selects a resource collection.
type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover_letter"
)

// Resume is a created resume document.
type Resume struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	Principal string         `gorm:"type:text;not null;index" json:"principal"`
	Title     string         `gorm:"type:text;not null" json:"title"`
	Document  datatypes.JSON `gorm:"type:text" json:"document,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"-"`
}

func (Resume) TableName() string { return "resumes" }

// CoverLetter is a created cover letter document.
type CoverLetter struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	Principal string         `gorm:"type:text;not null;index" json:"principal"`
	Title     string         `gorm:"type:text;not null" json:"title"`
	Document  datatypes.JSON `gorm:"type:text" json:"document,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"-"`
}

func (CoverLetter) TableName() string { return "cover_letters" }

// Repository owns the resource tables. CreateResume and CreateCoverLetter
// enforce the lifetime cap inside a single transaction: recount, reject at
// the cap, insert. A negative limit means uncapped.
type Repository interface {
	CountOwned(ctx context.Context, principal string, kind Kind) (int64, error)
	CreateResume(ctx context.Context, record *Resume, limit int64) error
	CreateCoverLetter(ctx context.Context, record *CoverLetter, limit int64) error
	ListResumes(ctx context.Context, principal string) ([]Resume, error)
	ListCoverLetters(ctx context.Context, principal string) ([]CoverLetter, error)
	DeleteResume(ctx context.Context, principal string, id snowflake.ID) error
	DeleteCoverLetter(ctx context.Context, principal string, id snowflake.ID) error
}

// Service is the creation surface consumed by HTTP handlers. It resolves the
// principal's tier, derives the lifetime limit from policy and delegates the
// capped insert to the repository.
type Service interface {
	CreateResume(ctx context.Context, principal, title string, document []byte) (*Resume, error)
	CreateCoverLetter(ctx context.Context, principal, title string, document []byte) (*CoverLetter, error)
	ListResumes(ctx context.Context, principal string) ([]Resume, error)
	ListCoverLetters(ctx context.Context, principal string) ([]CoverLetter, error)
	DeleteResume(ctx context.Context, principal string, id snowflake.ID) error
	DeleteCoverLetter(ctx context.Context, principal string, id snowflake.ID) error
}
