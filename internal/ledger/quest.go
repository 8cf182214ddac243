package ledger

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

// SubmitQuest records a member's claim that they completed a quest. A
// rejected claim is reopened in place rather than duplicated, so each
// (quest, user) pair has at most one completion row.
func (s *Service) SubmitQuest(questID, userID int64) (*model.QuestCompletion, error) {
	quest, err := s.quests.GetByID(questID)
	if err != nil {
		return nil, err
	}
	if quest == nil || !quest.Active {
		return nil, ErrNotFound
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.IsAdmin() {
		return nil, ErrForbidden
	}

	existing, err := s.quests.GetCompletion(questID, userID)
	if err != nil {
		return nil, err
	}

	var completion *model.QuestCompletion
	if existing != nil {
		if existing.Status != model.CompletionRejected {
			return nil, ErrConflict
		}
		ok, err := s.quests.Reopen(existing.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost a race: the row left REJECTED between the read and the
			// guarded update.
			return nil, ErrConflict
		}
		completion, err = s.quests.GetCompletionByID(existing.ID)
		if err != nil {
			return nil, err
		}
	} else {
		completion, err = s.quests.CreateCompletion(questID, userID)
		if err != nil {
			return nil, err
		}
	}

	s.notifyQuestSubmitted(user, quest)
	return completion, nil
}

// notifyQuestSubmitted tells every admin about a new submission. Delivery is
// best-effort; the submission already succeeded.
func (s *Service) notifyQuestSubmitted(user *model.User, quest *model.Quest) {
	admins, err := s.users.ListAdmins()
	if err != nil {
		s.logger.Warn("list admins for quest notification", "error", err)
		return
	}

	message := fmt.Sprintf("%s (%s) completed quest: %s", user.Name, user.AvatarEmoji, quest.Title)
	for _, admin := range admins {
		if _, err := s.notifications.Create(model.NotifQuestApproval, admin.ID, nil, message); err != nil {
			s.logger.Warn("create quest notification", "admin", admin.ID, "error", err)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyAdmins("Quest submitted", message)
	}
}

// ApproveQuest irreversibly approves a pending completion, awards the quest's
// configured reward (which may exceed 1), and recalculates the submitter's
// balance, all in one transaction.
func (s *Service) ApproveQuest(completionID, adminID int64) (*model.QuestCompletion, error) {
	if err := s.requireAdmin(adminID); err != nil {
		return nil, err
	}

	completion, err := s.quests.GetCompletionByID(completionID)
	if err != nil {
		return nil, err
	}
	if completion == nil {
		return nil, ErrNotFound
	}
	if completion.Status != model.CompletionPending {
		return nil, ErrInvalidState
	}

	quest, err := s.quests.GetByID(completion.QuestID)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, ErrNotFound
	}

	user, err := s.users.GetByID(completion.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	defer s.locks.acquire(completion.UserID).Unlock()

	err = s.inTx(func(tx *sql.Tx) error {
		quests := s.quests.WithTx(tx)
		ok, err := quests.Review(completionID, model.CompletionApproved, adminID)
		if err != nil {
			return err
		}
		if !ok {
			// Already reviewed by a concurrent admin; do not double-award.
			return ErrInvalidState
		}

		transactions := s.transactions.WithTx(tx)
		description := fmt.Sprintf("Completed quest: %s", quest.Title)
		if _, err := transactions.Insert(nil, &completion.UserID, model.KindQuestReward, quest.Reward, description); err != nil {
			return err
		}

		_, err = recalculate(s.users.WithTx(tx), transactions, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quest approved",
		"completion", completionID,
		"quest", quest.ID,
		"user", completion.UserID,
		"reward", quest.Reward,
		"admin", adminID,
	)
	return s.quests.GetCompletionByID(completionID)
}

// RejectQuest rejects a pending completion. Nothing was awarded for the
// submission, so there is no balance effect; the member may resubmit.
func (s *Service) RejectQuest(completionID, adminID int64) (*model.QuestCompletion, error) {
	if err := s.requireAdmin(adminID); err != nil {
		return nil, err
	}

	completion, err := s.quests.GetCompletionByID(completionID)
	if err != nil {
		return nil, err
	}
	if completion == nil {
		return nil, ErrNotFound
	}
	if completion.Status != model.CompletionPending {
		return nil, ErrInvalidState
	}

	ok, err := s.quests.Review(completionID, model.CompletionRejected, adminID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}
	return s.quests.GetCompletionByID(completionID)
}

func (s *Service) requireAdmin(adminID int64) error {
	admin, err := s.users.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil || !admin.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
