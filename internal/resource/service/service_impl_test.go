package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pabloguineab/debugcv-sub002/internal/clock"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
	"go.uber.org/zap"
)

type fakeOracle struct {
	tier plandomain.Tier
}

func (o fakeOracle) Resolve(ctx context.Context, principal string) plandomain.Tier {
	return o.tier
}

type fakeRepo struct {
	lastLimit int64
	err       error
}

func (f *fakeRepo) CountOwned(ctx context.Context, principal string, kind resourcedomain.Kind) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) CreateResume(ctx context.Context, record *resourcedomain.Resume, limit int64) error {
	f.lastLimit = limit
	return f.err
}

func (f *fakeRepo) CreateCoverLetter(ctx context.Context, record *resourcedomain.CoverLetter, limit int64) error {
	f.lastLimit = limit
	return f.err
}

func (f *fakeRepo) ListResumes(ctx context.Context, principal string) ([]resourcedomain.Resume, error) {
	return nil, nil
}

func (f *fakeRepo) ListCoverLetters(ctx context.Context, principal string) ([]resourcedomain.CoverLetter, error) {
	return nil, nil
}

func (f *fakeRepo) DeleteResume(ctx context.Context, principal string, id snowflake.ID) error {
	return f.err
}

func (f *fakeRepo) DeleteCoverLetter(ctx context.Context, principal string, id snowflake.ID) error {
	return f.err
}

func newTestService(t *testing.T, tier plandomain.Tier, repo *fakeRepo) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		log:    zap.NewNop(),
		genID:  node,
		clock:  clock.Fixed{T: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		oracle: fakeOracle{tier: tier},
		policy: quota.DefaultPolicy(),
		repo:   repo,
	}
}

func TestCreateResumeFreeTierPassesCap(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, plandomain.TierFree, repo)

	record, err := svc.CreateResume(context.Background(), "Free@Example.com ", "My Resume", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.lastLimit != 3 {
		t.Fatalf("limit = %d, want 3", repo.lastLimit)
	}
	if record.Principal != "free@example.com" {
		t.Fatalf("principal not normalized: %q", record.Principal)
	}
	if record.ID == 0 {
		t.Fatalf("expected generated id")
	}
}

func TestCreateResumeProTierIsUncapped(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, plandomain.TierPro, repo)

	if _, err := svc.CreateResume(context.Background(), "pro@example.com", "My Resume", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.lastLimit != -1 {
		t.Fatalf("limit = %d, want -1", repo.lastLimit)
	}
}

func TestCreateResumeCapErrorPassesThrough(t *testing.T) {
	repo := &fakeRepo{err: resourcedomain.ErrLifetimeCapReached}
	svc := newTestService(t, plandomain.TierFree, repo)

	_, err := svc.CreateResume(context.Background(), "free@example.com", "My Resume", nil)
	if !errors.Is(err, resourcedomain.ErrLifetimeCapReached) {
		t.Fatalf("expected lifetime_cap_reached, got %v", err)
	}
}

func TestCreateResumeValidation(t *testing.T) {
	svc := newTestService(t, plandomain.TierFree, &fakeRepo{})

	if _, err := svc.CreateResume(context.Background(), "  ", "title", nil); !errors.Is(err, resourcedomain.ErrInvalidPrincipal) {
		t.Fatalf("expected invalid_principal, got %v", err)
	}
	if _, err := svc.CreateResume(context.Background(), "free@example.com", "  ", nil); !errors.Is(err, resourcedomain.ErrInvalidTitle) {
		t.Fatalf("expected invalid_title, got %v", err)
	}
}

func TestCreateCoverLetterStoresDocument(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, plandomain.TierFree, repo)

	record, err := svc.CreateCoverLetter(context.Background(), "free@example.com", "Letter", []byte(`{"body":"hello"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(record.Document) == 0 {
		t.Fatalf("expected document stored")
	}
	if repo.lastLimit != 3 {
		t.Fatalf("limit = %d, want 3", repo.lastLimit)
	}
}
