package service

import (
	"context"
	"errors"
	"time"

	"kidcoins/internal/apperr"
	"kidcoins/internal/credentials"
	"kidcoins/internal/events"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"
	"kidcoins/internal/validation"

	"github.com/sirupsen/logrus"
)

// DefaultInviteCodeTTL is how long a new invitation code stays valid
const DefaultInviteCodeTTL = 30 * 24 * time.Hour

// maxCodeAttempts bounds retries on a generated code colliding with an existing one
const maxCodeAttempts = 5

// InvitationMailer delivers an invitation code by email
type InvitationMailer interface {
	IsEnabled() bool
	SendInvitationCode(ctx context.Context, toEmail, parentName, code string, expiresAt *time.Time) error
}

// FamilyService issues and consumes invitation codes and reads the
// parent/child graph they create
type FamilyService struct {
	core
	ttl          time.Duration
	mailer       InvitationMailer
	generateCode func() (string, error)
}

// NewFamilyService creates a new family service. A zero ttl uses
// DefaultInviteCodeTTL; a nil mailer disables emailing codes.
func NewFamilyService(opts Options, ttl time.Duration, mailer InvitationMailer) *FamilyService {
	if ttl <= 0 {
		ttl = DefaultInviteCodeTTL
	}
	return &FamilyService{
		core:         newCore(opts),
		ttl:          ttl,
		mailer:       mailer,
		generateCode: credentials.GenerateInvitationCode,
	}
}

// IssueCode returns the parent's active code, creating one when none exists.
// The parent's row lock keeps two concurrent calls from creating two codes.
func (s *FamilyService) IssueCode(ctx context.Context, actor Actor) (*models.InvitationCode, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, s.refused("family.issue_code", err)
	}

	now := s.now()
	var code *models.InvitationCode
	created := false
	err := s.inTx(ctx, func(st *repository.Store) error {
		if err := lockUser(ctx, st, actor.ID); err != nil {
			return err
		}

		active, err := activeCode(ctx, st, actor.ID, now)
		if err != nil {
			return err
		}
		if active != nil {
			code = active
			return nil
		}

		value, err := s.freshCode(ctx, st)
		if err != nil {
			return err
		}
		expiresAt := now.Add(s.ttl)
		code, err = st.Invitations.CreateCode(ctx, actor.ID, value, &expiresAt, now)
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.New(apperr.KindConflict, "invitation code collision, try again")
		}
		created = err == nil
		return err
	})
	if err != nil {
		return nil, s.refused("family.issue_code", err)
	}

	if created {
		s.log.WithFields(logrus.Fields{"parent_id": actor.ID, "code_id": code.ID}).Info("invitation code issued")
	}
	return code, nil
}

// freshCode generates a code not present in storage
func (s *FamilyService) freshCode(ctx context.Context, st *repository.Store) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		value, err := s.generateCode()
		if err != nil {
			return "", err
		}
		existing, err := st.Invitations.GetByCode(ctx, value)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return value, nil
		}
	}
	return "", apperr.New(apperr.KindConflict, "could not generate a unique invitation code")
}

// CurrentCode returns the parent's active code without creating one
func (s *FamilyService) CurrentCode(ctx context.Context, actor Actor) (*models.InvitationCode, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, err
	}
	var code *models.InvitationCode
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		code, err = activeCode(ctx, st, actor.ID, s.now())
		if err != nil {
			return err
		}
		if code == nil {
			return apperr.NotFound("no active invitation code")
		}
		return nil
	})
	return code, err
}

func activeCode(ctx context.Context, st *repository.Store, parentID int64, now time.Time) (*models.InvitationCode, error) {
	codes, err := st.Invitations.ListUnusedByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for i := range codes {
		if codes[i].IsActive(now) {
			return &codes[i], nil
		}
	}
	return nil, nil
}

// Consume links the acting child to the code's parent and returns the
// parent's ID. The conditional used_by update picks exactly one winner when
// two children race for the same code; the loser gets AlreadyUsed.
func (s *FamilyService) Consume(ctx context.Context, actor Actor, rawCode string) (int64, error) {
	if err := requireRole(actor, models.RoleChild); err != nil {
		return 0, s.refused("family.consume", err)
	}
	value := credentials.NormalizeCode(rawCode)
	if !credentials.IsWellFormed(value) {
		return 0, s.refused("family.consume", apperr.NotFound("invitation code not found"))
	}

	now := s.now()
	var parentID int64
	err := s.inTx(ctx, func(st *repository.Store) error {
		code, err := st.Invitations.GetByCode(ctx, value)
		if err != nil {
			return err
		}
		if code == nil {
			return apperr.NotFound("invitation code not found")
		}
		if code.IsUsed() {
			return apperr.New(apperr.KindAlreadyUsed, "invitation code has already been used")
		}
		if code.IsExpired(now) {
			return apperr.New(apperr.KindExpired, "invitation code has expired")
		}

		linked, err := st.Families.IsLinked(ctx, code.ParentID, actor.ID)
		if err != nil {
			return err
		}
		if linked {
			return apperr.New(apperr.KindConflict, "already linked to this parent")
		}

		ok, err := st.Invitations.MarkUsed(ctx, code.ID, actor.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindAlreadyUsed, "invitation code has already been used")
		}

		if _, err := st.Families.CreateRelation(ctx, code.ParentID, actor.ID, now); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.New(apperr.KindConflict, "already linked to this parent")
			}
			return err
		}
		parentID = code.ParentID
		return nil
	})
	if err != nil {
		return 0, s.refused("family.consume", err)
	}

	s.log.WithFields(logrus.Fields{"parent_id": parentID, "child_id": actor.ID}).Info("family linked")
	s.publish(ctx, events.Event{Type: events.FamilyLinked, UserID: actor.ID, SubjectID: parentID})
	return parentID, nil
}

// GetChildren lists the parent's linked children with their derived balances
func (s *FamilyService) GetChildren(ctx context.Context, actor Actor) ([]models.ChildSummary, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, err
	}
	var summaries []models.ChildSummary
	err := s.read(ctx, func(st *repository.Store) error {
		children, err := st.Families.GetChildren(ctx, actor.ID)
		if err != nil {
			return err
		}
		summaries = make([]models.ChildSummary, 0, len(children))
		for _, child := range children {
			balance, err := balanceSummary(ctx, st, child.ID)
			if err != nil {
				return err
			}
			summaries = append(summaries, models.ChildSummary{
				Child:         child,
				CoinBalance:   balance.Balance,
				PendingCoins:  balance.Pending,
				CurrentStreak: child.CurrentStreak,
			})
		}
		return nil
	})
	return summaries, err
}

// GetParents lists the acting child's linked parents
func (s *FamilyService) GetParents(ctx context.Context, actor Actor) ([]models.User, error) {
	if err := requireRole(actor, models.RoleChild); err != nil {
		return nil, err
	}
	var parents []models.User
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		parents, err = st.Families.GetParents(ctx, actor.ID)
		return err
	})
	return parents, err
}

// EmailInvitationCode sends the parent's active code to an address
func (s *FamilyService) EmailInvitationCode(ctx context.Context, actor Actor, toEmail string) (*models.InvitationCode, error) {
	if s.mailer == nil || !s.mailer.IsEnabled() {
		return nil, apperr.Unavailable(errors.New("email delivery is not configured"))
	}
	if err := validation.ValidateEmail(toEmail); err != nil {
		return nil, err
	}

	code, err := s.IssueCode(ctx, actor)
	if err != nil {
		return nil, err
	}

	var parentName string
	err = s.read(ctx, func(st *repository.Store) error {
		parent, err := st.Users.GetUserByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if parent != nil {
			parentName = parent.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvitationCode(ctx, toEmail, parentName, code.Code, code.ExpiresAt); err != nil {
		return nil, apperr.Unavailable(err)
	}
	return code, nil
}

// SweepExpiredCodes deletes unused codes that have expired and returns how
// many were removed. Consumption checks expiry on its own, so the sweep is
// housekeeping only.
func (s *FamilyService) SweepExpiredCodes(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	err := s.inTx(ctx, func(st *repository.Store) error {
		codes, err := st.Invitations.ListUnusedWithExpiry(ctx)
		if err != nil {
			return err
		}
		for i := range codes {
			if !codes[i].IsExpired(now) {
				continue
			}
			ok, err := st.Invitations.DeleteUnused(ctx, codes[i].ID)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("removed", removed).Info("expired invitation codes swept")
	return removed, nil
}
