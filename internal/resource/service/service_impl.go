// Package service gates resource creation behind the lifetime caps.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pabloguineab/debugcv-sub002/internal/clock"
	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/events"
	plandomain "github.com/pabloguineab/debugcv-sub002/internal/plan/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Oracle plandomain.Oracle
	Policy quota.Policy
	Repo   resourcedomain.Repository
	Outbox *events.Outbox `optional:"true"`
}

type Service struct {
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	oracle plandomain.Oracle
	policy quota.Policy
	repo   resourcedomain.Repository
	outbox *events.Outbox
}

func NewService(p ServiceParam) resourcedomain.Service {
	return &Service{
		log:    p.Log.Named("resource.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		oracle: p.Oracle,
		policy: p.Policy,
		repo:   p.Repo,
		outbox: p.Outbox,
	}
}

// CreateResume inserts a resume for the principal, bounded by the free-tier
// lifetime cap. Pro principals insert uncapped.
func (s *Service) CreateResume(ctx context.Context, principal, title string, document []byte) (*resourcedomain.Resume, error) {
	principal, title, err := s.validate(principal, title)
	if err != nil {
		return nil, err
	}

	limit, err := s.lifetimeLimit(ctx, principal, entitlementdomain.ActionCreateResume)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	record := &resourcedomain.Resume{
		ID:        s.genID.Generate(),
		Principal: principal,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(document) > 0 {
		record.Document = datatypes.JSON(document)
	}

	if err := s.repo.CreateResume(ctx, record, limit); err != nil {
		return nil, err
	}
	s.publishCreated(ctx, principal, resourcedomain.KindResume, record.ID)
	return record, nil
}

// CreateCoverLetter mirrors CreateResume for cover letters.
func (s *Service) CreateCoverLetter(ctx context.Context, principal, title string, document []byte) (*resourcedomain.CoverLetter, error) {
	principal, title, err := s.validate(principal, title)
	if err != nil {
		return nil, err
	}

	limit, err := s.lifetimeLimit(ctx, principal, entitlementdomain.ActionCreateCoverLetter)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	record := &resourcedomain.CoverLetter{
		ID:        s.genID.Generate(),
		Principal: principal,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(document) > 0 {
		record.Document = datatypes.JSON(document)
	}

	if err := s.repo.CreateCoverLetter(ctx, record, limit); err != nil {
		return nil, err
	}
	s.publishCreated(ctx, principal, resourcedomain.KindCoverLetter, record.ID)
	return record, nil
}

func (s *Service) ListResumes(ctx context.Context, principal string) ([]resourcedomain.Resume, error) {
	principal = normalize(principal)
	if principal == "" {
		return nil, resourcedomain.ErrInvalidPrincipal
	}
	return s.repo.ListResumes(ctx, principal)
}

func (s *Service) ListCoverLetters(ctx context.Context, principal string) ([]resourcedomain.CoverLetter, error) {
	principal = normalize(principal)
	if principal == "" {
		return nil, resourcedomain.ErrInvalidPrincipal
	}
	return s.repo.ListCoverLetters(ctx, principal)
}

func (s *Service) DeleteResume(ctx context.Context, principal string, id snowflake.ID) error {
	principal = normalize(principal)
	if principal == "" {
		return resourcedomain.ErrInvalidPrincipal
	}
	return s.repo.DeleteResume(ctx, principal, id)
}

func (s *Service) DeleteCoverLetter(ctx context.Context, principal string, id snowflake.ID) error {
	principal = normalize(principal)
	if principal == "" {
		return resourcedomain.ErrInvalidPrincipal
	}
	return s.repo.DeleteCoverLetter(ctx, principal, id)
}

// lifetimeLimit maps the principal's tier to the insert cap. Negative means
// uncapped, which is how pro tiers skip the recount entirely.
func (s *Service) lifetimeLimit(ctx context.Context, principal string, action entitlementdomain.Action) (int64, error) {
	tier := s.oracle.Resolve(ctx, principal)
	limit, err := s.policy.LimitFor(tier, action)
	if err != nil {
		return 0, err
	}
	if limit == quota.Unlimited {
		return -1, nil
	}
	return limit, nil
}

func (s *Service) publishCreated(ctx context.Context, principal string, kind resourcedomain.Kind, id snowflake.ID) {
	if s.outbox == nil {
		return
	}
	err := s.outbox.Publish(ctx, events.Event{
		Principal: principal,
		Type:      events.EventResourceCreated,
		Payload: map[string]any{
			"kind":        string(kind),
			"resource_id": id.String(),
		},
	})
	if err != nil {
		s.log.Warn("publish resource.created failed", zap.Error(err))
	}
}

func (s *Service) validate(principal, title string) (string, string, error) {
	principal = normalize(principal)
	if principal == "" {
		return "", "", resourcedomain.ErrInvalidPrincipal
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", resourcedomain.ErrInvalidTitle
	}
	return principal, title, nil
}

func normalize(principal string) string {
	return strings.ToLower(strings.TrimSpace(principal))
}
