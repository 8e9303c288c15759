package service

import (
	"context"
	"strings"

	"kidcoins/internal/apperr"
	"kidcoins/internal/events"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"
	"kidcoins/internal/validation"

	"github.com/sirupsen/logrus"
)

// MissionService drives the mission lifecycle:
// pending -> completed -> approved | rejected
type MissionService struct {
	core
	streaks *StreakTracker
}

// NewMissionService creates a new mission service
func NewMissionService(opts Options, streaks *StreakTracker) *MissionService {
	return &MissionService{core: newCore(opts), streaks: streaks}
}

// Create assigns a new pending mission to a linked child
func (s *MissionService) Create(ctx context.Context, actor Actor, input models.NewMission) (*models.Mission, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, s.refused("mission.create", err)
	}
	input.ParentID = actor.ID
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	if err := validation.ValidateTitle(input.Title); err != nil {
		return nil, s.refused("mission.create", err)
	}
	if err := validation.ValidatePositiveCoins("rewardCoins", input.RewardCoins); err != nil {
		return nil, s.refused("mission.create", err)
	}
	if input.Category == "" {
		input.Category = "general"
	}

	var mission *models.Mission
	err := s.inTx(ctx, func(st *repository.Store) error {
		if _, err := getChild(ctx, st, input.ChildID); err != nil {
			return err
		}
		linked, err := st.Families.IsLinked(ctx, actor.ID, input.ChildID)
		if err != nil {
			return err
		}
		if !linked {
			return apperr.Unauthorized("child %d is not linked to you", input.ChildID)
		}
		mission, err = st.Missions.CreateMission(ctx, input, s.now())
		return err
	})
	if err != nil {
		return nil, s.refused("mission.create", err)
	}

	s.metrics.Transition("mission", string(models.MissionPending))
	s.log.WithFields(logrus.Fields{
		"mission_id": mission.ID,
		"child_id":   mission.ChildID,
		"reward":     mission.RewardCoins,
	}).Info("mission created")
	return mission, nil
}

// MarkCompleted is called by the mission's child. It also counts as the
// child's activity for the day.
func (s *MissionService) MarkCompleted(ctx context.Context, actor Actor, missionID int64) (*models.Mission, error) {
	now := s.now()
	var mission *models.Mission
	err := s.inTx(ctx, func(st *repository.Store) error {
		// Only the assigned child may complete, so the actor's row is the
		// one the streak update needs locked.
		if err := lockUser(ctx, st, actor.ID); err != nil {
			return err
		}
		var err error
		mission, err = loadMission(ctx, st, missionID)
		if err != nil {
			return err
		}
		if mission.ChildID != actor.ID {
			return apperr.Unauthorized("only the assigned child can complete this mission")
		}

		ok, err := st.Missions.MarkCompleted(ctx, missionID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidTransition("mission is %s, only pending missions can be completed", mission.Status)
		}
		if s.streaks != nil {
			if _, err := s.streaks.touch(ctx, st, mission.ChildID, now); err != nil {
				return err
			}
		}

		mission, err = loadMission(ctx, st, missionID)
		return err
	})
	if err != nil {
		return nil, s.refused("mission.complete", err)
	}

	s.metrics.Transition("mission", string(models.MissionCompleted))
	s.log.WithFields(logrus.Fields{"mission_id": missionID, "child_id": mission.ChildID}).Info("mission completed")
	s.publish(ctx, events.Event{Type: events.MissionCompleted, UserID: mission.ChildID, SubjectID: missionID})
	return mission, nil
}

// Approve pays out the mission reward exactly once. The conditional status
// update is the de-duplication guard: a second call finds the mission no
// longer completed and posts nothing.
func (s *MissionService) Approve(ctx context.Context, actor Actor, missionID int64) (*models.Mission, error) {
	now := s.now()
	var mission *models.Mission
	err := s.inTx(ctx, func(st *repository.Store) error {
		var err error
		mission, err = loadMission(ctx, st, missionID)
		if err != nil {
			return err
		}
		if mission.ParentID != actor.ID {
			return apperr.Unauthorized("only the mission's parent can approve it")
		}

		ok, err := st.Missions.MarkApproved(ctx, missionID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidTransition("mission is %s, only completed missions can be approved", mission.Status)
		}

		related := missionID
		entry := repository.NewTransaction(mission.ChildID, mission.RewardCoins, models.TxMissionEarned,
			&related, "Completed: "+mission.Title, now)
		if _, err := s.appendEntry(ctx, st, entry); err != nil {
			return err
		}

		mission, err = loadMission(ctx, st, missionID)
		return err
	})
	if err != nil {
		return nil, s.refused("mission.approve", err)
	}

	s.metrics.Transition("mission", string(models.MissionApproved))
	s.log.WithFields(logrus.Fields{
		"mission_id": missionID,
		"child_id":   mission.ChildID,
		"amount":     mission.RewardCoins,
	}).Info("mission approved")
	s.publish(ctx, events.Event{Type: events.MissionApproved, UserID: mission.ChildID, SubjectID: missionID, Amount: mission.RewardCoins})
	return mission, nil
}

// Reject closes a pending or completed mission without payout
func (s *MissionService) Reject(ctx context.Context, actor Actor, missionID int64) (*models.Mission, error) {
	now := s.now()
	var mission *models.Mission
	err := s.inTx(ctx, func(st *repository.Store) error {
		var err error
		mission, err = loadMission(ctx, st, missionID)
		if err != nil {
			return err
		}
		if mission.ParentID != actor.ID {
			return apperr.Unauthorized("only the mission's parent can reject it")
		}

		ok, err := st.Missions.MarkRejected(ctx, missionID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidTransition("mission is already %s", mission.Status)
		}

		mission, err = loadMission(ctx, st, missionID)
		return err
	})
	if err != nil {
		return nil, s.refused("mission.reject", err)
	}

	s.metrics.Transition("mission", string(models.MissionRejected))
	s.log.WithFields(logrus.Fields{"mission_id": missionID, "child_id": mission.ChildID}).Info("mission rejected")
	s.publish(ctx, events.Event{Type: events.MissionRejected, UserID: mission.ChildID, SubjectID: missionID})
	return mission, nil
}

// Delete removes a mission owned by the actor. Only pending and rejected
// missions can be deleted, so no paid or awaiting-payout mission disappears.
func (s *MissionService) Delete(ctx context.Context, actor Actor, missionID int64) error {
	err := s.inTx(ctx, func(st *repository.Store) error {
		mission, err := loadMission(ctx, st, missionID)
		if err != nil {
			return err
		}
		if mission.ParentID != actor.ID {
			return apperr.Unauthorized("only the mission's parent can delete it")
		}

		ok, err := st.Missions.DeleteMission(ctx, missionID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidTransition("mission is %s, only pending or rejected missions can be deleted", mission.Status)
		}
		return nil
	})
	if err != nil {
		return s.refused("mission.delete", err)
	}

	s.log.WithField("mission_id", missionID).Info("mission deleted")
	return nil
}

// GetByID returns a mission visible to the actor
func (s *MissionService) GetByID(ctx context.Context, actor Actor, missionID int64) (*models.Mission, error) {
	var mission *models.Mission
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		mission, err = loadMission(ctx, st, missionID)
		if err != nil {
			return err
		}
		if mission.ParentID == actor.ID || mission.ChildID == actor.ID || actor.IsAdmin() {
			return nil
		}
		return apperr.Unauthorized("not allowed to view this mission")
	})
	return mission, err
}

// ListForChild returns a child's missions
func (s *MissionService) ListForChild(ctx context.Context, actor Actor, childID int64) ([]models.Mission, error) {
	var missions []models.Mission
	err := s.read(ctx, func(st *repository.Store) error {
		if err := requireChildAccess(ctx, st, actor, childID); err != nil {
			return err
		}
		var err error
		missions, err = st.Missions.ListByChild(ctx, childID)
		return err
	})
	return missions, err
}

// ListByParent returns the missions the actor created
func (s *MissionService) ListByParent(ctx context.Context, actor Actor) ([]models.Mission, error) {
	if err := requireRole(actor, models.RoleParent); err != nil {
		return nil, err
	}
	var missions []models.Mission
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		missions, err = st.Missions.ListByParent(ctx, actor.ID)
		return err
	})
	return missions, err
}

func loadMission(ctx context.Context, st *repository.Store, missionID int64) (*models.Mission, error) {
	mission, err := st.Missions.GetMissionByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, apperr.NotFound("mission %d not found", missionID)
	}
	return mission, nil
}
