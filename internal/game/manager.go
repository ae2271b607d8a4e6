package game

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

// BonusMultiplier is applied to the question's points for the first
// session to score a fully correct answer in a round.
const BonusMultiplier = 1.2

// Start-eligibility rejections. The gateway relays the specific reason to
// the caller; a generic failure is never emitted.
var (
	ErrNotOrganizer = errors.New("only the organizer can start the game")
	ErrRoomNotReady = errors.New("room must be locked and have at least one participant")
)

// Manager owns all answer and scoring bookkeeping. Score mutation happens
// only here; the gateway never touches a session's score directly.
type Manager struct{}

// NewManager creates a game manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddAnswer toggles the session's username in the target StatLine. The
// username is first evicted from whatever line it previously held for
// that question, so it occupies at most one line at any time. Selecting
// the line it already holds clears the selection. Missing room, question
// or choice is a benign no-op: answer delivery can race room destruction.
func (m *Manager) AddAnswer(session *models.UserSession, ans models.Answer, room *models.Room) {
	if session == nil || room == nil || room.Stats == nil {
		return
	}
	if ans.QuestionIndex < 0 || ans.QuestionIndex >= len(room.Stats.Questions) {
		return
	}
	q := &room.Stats.Questions[ans.QuestionIndex]
	if ans.ChoiceIndex < 0 || ans.ChoiceIndex >= len(q.Lines) {
		return
	}

	target := &q.Lines[ans.ChoiceIndex]
	wasSelected := target.HasPicker(session.Username)

	for i := range q.Lines {
		q.Lines[i].RemovePicker(session.Username)
	}
	if !wasSelected {
		target.Pickers = append(target.Pickers, session.Username)
	}
}

// AllAnswered reports whether every session still in the room has
// confirmed this round. A departed, unanswered session never blocks round
// end. Returns false on a nil room; callers racing destruction must not
// treat that as "round complete".
func (m *Manager) AllAnswered(room *models.Room) bool {
	if room == nil || room.Stats == nil {
		log.Debug().Msg("allAnswered called on missing room")
		return false
	}
	for _, u := range room.Stats.Users {
		if u.HasLeft || strings.EqualFold(u.Username, models.OrganizerName) {
			continue
		}
		if !u.Answered {
			return false
		}
	}
	return true
}

// CanConfirmAnswer guards against duplicate confirmations: true iff the
// session exists and has not confirmed this round.
func (m *Manager) CanConfirmAnswer(session *models.UserSession) bool {
	return session != nil && !session.Answered
}

// CheckAnswers scores the session on questionIndex. Full points are
// awarded iff the session's selected correct lines exactly equal the
// question's correct lines, with no incorrect line selected: partial and
// over-selection both score zero. The first session in the round to score
// correctly additionally earns the bonus multiplier, provided the round's
// time has not elapsed or the session is alone in the room.
func (m *Manager) CheckAnswers(session *models.UserSession, questionIndex int, room *models.Room) {
	if session == nil || room == nil || room.Stats == nil {
		return
	}
	if questionIndex < 0 || questionIndex >= len(room.Stats.Questions) {
		return
	}
	q := &room.Stats.Questions[questionIndex]

	// Open-ended questions are graded manually through GivePoints.
	if q.Type == models.QuestionTypeOpenEnded || len(q.Lines) == 0 {
		return
	}

	correct := 0
	selectedCorrect := 0
	selectedWrong := 0
	for i := range q.Lines {
		l := &q.Lines[i]
		if l.IsCorrect {
			correct++
		}
		if l.HasPicker(session.Username) {
			if l.IsCorrect {
				selectedCorrect++
			} else {
				selectedWrong++
			}
		}
	}

	if selectedWrong > 0 || selectedCorrect != correct || correct == 0 {
		return
	}

	if m.earnsBonus(session, q, room) {
		session.Score += q.Points * BonusMultiplier
		session.BonusCount++
		session.FirstToAnswer = true
		log.Debug().
			Str("room_code", room.Code).
			Str("username", session.Username).
			Int("question", questionIndex).
			Msg("first-to-answer bonus awarded")
		return
	}

	session.Score += q.Points
}

// earnsBonus reports whether session is the round's first correct answer
// and the bonus window is still open.
func (m *Manager) earnsBonus(session *models.UserSession, q *models.QuestionStats, room *models.Room) bool {
	for _, u := range room.Stats.Users {
		if u != session && u.FirstToAnswer {
			return false
		}
	}
	return !q.TimeFinished || room.Participants() == 1
}

// CanStartGame checks start eligibility: caller must be the organizer, the
// room must be locked, and at least one non-organizer participant must be
// present. The two failure modes are distinct so the gateway can name the
// exact reason.
func (m *Manager) CanStartGame(session *models.UserSession, room *models.Room) error {
	if session == nil || !strings.EqualFold(session.Username, models.OrganizerName) {
		return ErrNotOrganizer
	}
	if room == nil || room.IsOpen || room.Participants() < 1 {
		return ErrRoomNotReady
	}
	return nil
}

// GivePoints applies a manual grade: points are added to the named
// session's score and the username is recorded under the bucket matching
// percentage (0, 50 or 100).
func (m *Manager) GivePoints(room *models.Room, questionIndex int, username string, percentage int, points float64) {
	if room == nil || room.Stats == nil {
		return
	}
	if questionIndex < 0 || questionIndex >= len(room.Stats.Questions) {
		return
	}
	session := room.Stats.FindSession(username)
	if session == nil {
		return
	}

	session.Score += points

	q := &room.Stats.Questions[questionIndex]
	switch percentage {
	case 0:
		q.PointsGiven.None = append(q.PointsGiven.None, username)
	case 50:
		q.PointsGiven.Half = append(q.PointsGiven.Half, username)
	case 100:
		q.PointsGiven.All = append(q.PointsGiven.All, username)
	default:
		log.Warn().
			Str("room_code", room.Code).
			Str("username", username).
			Int("percentage", percentage).
			Msg("unrecognized grading percentage, score applied without bucket")
	}
}
