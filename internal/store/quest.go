package store

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

type QuestStore struct {
	db DB
}

func NewQuestStore(db DB) *QuestStore {
	return &QuestStore{db: db}
}

// WithTx returns a QuestStore bound to the given transaction.
func (s *QuestStore) WithTx(tx *sql.Tx) *QuestStore {
	return &QuestStore{db: tx}
}

// --- Quest methods ---

func scanQuest(scanner interface{ Scan(...any) error }) (*model.Quest, error) {
	var q model.Quest
	var active int

	err := scanner.Scan(&q.ID, &q.Title, &q.Reward, &active, &q.CreatedAt)
	if err != nil {
		return nil, err
	}

	q.Active = active != 0
	return &q, nil
}

const questCols = `id, title, reward, active, created_at`

func (s *QuestStore) Create(title string, reward int) (*model.Quest, error) {
	result, err := s.db.Exec(
		`INSERT INTO quests (title, reward) VALUES (?, ?)`,
		title, reward,
	)
	if err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *QuestStore) GetByID(id int64) (*model.Quest, error) {
	row := s.db.QueryRow(`SELECT `+questCols+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return q, nil
}

// List returns all quests, newest first.
func (s *QuestStore) List() ([]model.Quest, error) {
	rows, err := s.db.Query(`SELECT ` + questCols + ` FROM quests ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []model.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

// ListActiveWithStatus returns active quests ordered by reward descending,
// each annotated with the given user's own completion status.
func (s *QuestStore) ListActiveWithStatus(userID int64) ([]model.QuestWithStatus, error) {
	rows, err := s.db.Query(
		`SELECT q.id, q.title, q.reward, q.active, q.created_at, COALESCE(qc.status, '')
		 FROM quests q
		 LEFT JOIN quest_completions qc ON qc.quest_id = q.id AND qc.user_id = ?
		 WHERE q.active = 1
		 ORDER BY q.reward DESC, q.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active quests: %w", err)
	}
	defer rows.Close()

	var quests []model.QuestWithStatus
	for rows.Next() {
		var q model.QuestWithStatus
		var active int
		var status string
		if err := rows.Scan(&q.ID, &q.Title, &q.Reward, &active, &q.CreatedAt, &status); err != nil {
			return nil, fmt.Errorf("scan quest with status: %w", err)
		}
		q.Active = active != 0
		q.UserStatus = model.CompletionStatus(status)
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

func (s *QuestStore) SetActive(id int64, active bool) error {
	var a int
	if active {
		a = 1
	}
	_, err := s.db.Exec(`UPDATE quests SET active = ? WHERE id = ?`, a, id)
	if err != nil {
		return fmt.Errorf("set quest active: %w", err)
	}
	return nil
}

// Delete removes a quest; completions cascade.
func (s *QuestStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.QuestCompletion, error) {
	var c model.QuestCompletion
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullInt64

	err := scanner.Scan(&c.ID, &c.QuestID, &c.UserID, &c.Status, &c.SubmittedAt, &reviewedAt, &reviewedBy)
	if err != nil {
		return nil, err
	}

	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		c.ReviewedBy = &reviewedBy.Int64
	}
	return &c, nil
}

const completionCols = `id, quest_id, user_id, status, submitted_at, reviewed_at, reviewed_by`

func (s *QuestStore) CreateCompletion(questID, userID int64) (*model.QuestCompletion, error) {
	result, err := s.db.Exec(
		`INSERT INTO quest_completions (quest_id, user_id) VALUES (?, ?)`,
		questID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCompletionByID(id)
}

func (s *QuestStore) GetCompletionByID(id int64) (*model.QuestCompletion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM quest_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// GetCompletion returns the single completion row for a (quest, user) pair,
// or nil if the user never submitted this quest.
func (s *QuestStore) GetCompletion(questID, userID int64) (*model.QuestCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM quest_completions WHERE quest_id = ? AND user_id = ?`,
		questID, userID,
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion by pair: %w", err)
	}
	return c, nil
}

// Reopen transitions a REJECTED completion back to PENDING, clearing the
// review metadata. Returns false if the row was not in REJECTED state.
func (s *QuestStore) Reopen(id int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE quest_completions
		 SET status = 'PENDING', submitted_at = CURRENT_TIMESTAMP, reviewed_at = NULL, reviewed_by = NULL
		 WHERE id = ? AND status = 'REJECTED'`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("reopen completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Review moves a PENDING completion to APPROVED or REJECTED, recording the
// reviewer. Returns false if the row was not PENDING, which is the guard
// against double approval.
func (s *QuestStore) Review(id int64, status model.CompletionStatus, adminID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE quest_completions
		 SET status = ?, reviewed_at = CURRENT_TIMESTAMP, reviewed_by = ?
		 WHERE id = ? AND status = 'PENDING'`,
		string(status), adminID, id,
	)
	if err != nil {
		return false, fmt.Errorf("review completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListPending returns pending completions joined with quest and submitter
// info, oldest first.
func (s *QuestStore) ListPending() ([]model.CompletionDetail, error) {
	rows, err := s.db.Query(
		`SELECT qc.id, qc.quest_id, qc.user_id, qc.status, qc.submitted_at, qc.reviewed_at, qc.reviewed_by,
		        q.title, q.reward, u.name, u.avatar_emoji
		 FROM quest_completions qc
		 JOIN quests q ON qc.quest_id = q.id
		 JOIN users u ON qc.user_id = u.id
		 WHERE qc.status = 'PENDING'
		 ORDER BY qc.submitted_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending completions: %w", err)
	}
	defer rows.Close()

	var details []model.CompletionDetail
	for rows.Next() {
		var d model.CompletionDetail
		var reviewedAt sql.NullTime
		var reviewedBy sql.NullInt64
		err := rows.Scan(
			&d.ID, &d.QuestID, &d.UserID, &d.Status, &d.SubmittedAt, &reviewedAt, &reviewedBy,
			&d.QuestTitle, &d.QuestReward, &d.UserName, &d.UserEmoji,
		)
		if err != nil {
			return nil, fmt.Errorf("scan completion detail: %w", err)
		}
		if reviewedAt.Valid {
			d.ReviewedAt = &reviewedAt.Time
		}
		if reviewedBy.Valid {
			d.ReviewedBy = &reviewedBy.Int64
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *QuestStore) PendingCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM quest_completions WHERE status = 'PENDING'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending completions: %w", err)
	}
	return count, nil
}
