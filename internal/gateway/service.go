package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/o-benz/SmartyShowdown-sub000/internal/archive"
	"github.com/o-benz/SmartyShowdown-sub000/internal/directory"
	"github.com/o-benz/SmartyShowdown-sub000/internal/game"
	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
	"github.com/o-benz/SmartyShowdown-sub000/internal/quiz"
	"github.com/o-benz/SmartyShowdown-sub000/internal/registry"
	"github.com/o-benz/SmartyShowdown-sub000/internal/timer"
)

const (
	heartbeatInterval = time.Second

	quizFetchTimeout = 5 * time.Second
	archiveTimeout   = 5 * time.Second
)

// Broadcaster is the fan-out capability the gateway emits through.
// *ConnectionManager implements it; tests substitute a recorder.
type Broadcaster interface {
	EmitToRoom(roomCode, event string, payload any)
	EmitToRoomExcept(roomCode, exceptConnID, event string, payload any)
	EmitToConn(connID, event string, payload any)
	EmitToAll(event string, payload any)
	JoinRoom(connID, roomCode string)
	LeaveRoom(connID string)
	ConnectionIDsInRoom(roomCode string) []string
}

// Service is the session gateway: the single entry point for every client
// command. It owns the room registry, composes the game and timer
// managers, and performs all broadcasts. Commands are serialized under
// one mutex, so a room's state is never mutated by two commands at once;
// timer and heartbeat callbacks only read and broadcast.
type Service struct {
	rooms   *registry.RoomRegistry
	game    *game.Manager
	timers  *timer.Manager
	quizzes quiz.Store
	archive archive.Publisher
	bc      Broadcaster
	clock   clockwork.Clock

	mu         sync.Mutex
	sessions   map[string]*models.UserSession // connection id -> session
	pending    map[string]string              // connection id -> room code, joined but not logged in
	organizers map[string]string              // room code -> organizer connection id
}

// Config wires the gateway's collaborators.
type Config struct {
	Rooms       *registry.RoomRegistry
	Game        *game.Manager
	Timers      *timer.Manager
	Quizzes     quiz.Store
	Archive     archive.Publisher
	Broadcaster Broadcaster
	Clock       clockwork.Clock
}

// NewService creates the session gateway.
func NewService(c Config) *Service {
	return &Service{
		rooms:      c.Rooms,
		game:       c.Game,
		timers:     c.Timers,
		quizzes:    c.Quizzes,
		archive:    c.Archive,
		bc:         c.Broadcaster,
		clock:      c.Clock,
		sessions:   make(map[string]*models.UserSession),
		pending:    make(map[string]string),
		organizers: make(map[string]string),
	}
}

// CreateRoom fetches the quiz content, seeds the room's GameStats,
// registers an open unstarted room and attaches the caller as organizer.
func (s *Service) CreateRoom(connID, quizID string) {
	id, err := uuid.Parse(quizID)
	if err != nil {
		s.reject(connID, "invalid quiz id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), quizFetchTimeout)
	defer cancel()

	q, err := s.quizzes.GetQuizByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("quiz_id", quizID).Msg("failed to fetch quiz content")
		s.reject(connID, "quiz not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms.Create(quiz.GenerateGameStats(q))

	organizer := models.NewUserSession(models.OrganizerName, room.Code)
	room.Stats.Users = append(room.Stats.Users, organizer)
	s.sessions[connID] = organizer
	s.organizers[room.Code] = connID

	s.bc.JoinRoom(connID, room.Code)
	s.bc.EmitToConn(connID, EventRoomCreated, RoomCreatedPayload{
		RoomCode: room.Code,
		QuizName: room.Stats.Name,
	})
}

// JoinRoom acknowledges a join attempt. On success the connection is
// marked pending-login into the room and added to its fan-out group.
func (s *Service) JoinRoom(connID, roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms.Get(roomCode)
	if room == nil {
		s.bc.EmitToConn(connID, EventJoinRoomAck, AckPayload{Joined: false, Message: "room not found"})
		return
	}
	if !room.IsOpen {
		s.bc.EmitToConn(connID, EventJoinRoomAck, AckPayload{Joined: false, Message: "room is locked"})
		return
	}

	s.pending[connID] = roomCode
	s.bc.JoinRoom(connID, roomCode)
	s.bc.EmitToConn(connID, EventJoinRoomAck, AckPayload{Joined: true})
}

// Login binds a username to a pending connection. A name that left the
// room earlier resumes its prior session and score; everything else goes
// through the ordinary validity checks.
func (s *Service) Login(connID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomCode, ok := s.pending[connID]
	if !ok {
		s.bc.EmitToConn(connID, EventLoginAck, AckPayload{Joined: false, Message: "join a room first"})
		return
	}

	if !directory.IsLoginValid(s.rooms, roomCode, username) {
		s.bc.EmitToConn(connID, EventLoginAck, AckPayload{Joined: false, Message: "you are banned from this room"})
		return
	}
	room := s.rooms.Get(roomCode)

	session := room.Stats.FindSession(username)
	switch {
	case session != nil && session.HasLeft:
		// Rejoin: resume the departed session and its score.
		session.HasLeft = false
	case session != nil:
		s.bc.EmitToConn(connID, EventLoginAck, AckPayload{Joined: false, Message: "username already taken"})
		return
	default:
		if !directory.IsUserValid(username, room.Stats.Users) {
			s.bc.EmitToConn(connID, EventLoginAck, AckPayload{Joined: false, Message: "invalid username"})
			return
		}
		session = models.NewUserSession(username, roomCode)
		room.Stats.Users = append(room.Stats.Users, session)
	}

	delete(s.pending, connID)
	s.sessions[connID] = session

	s.bc.EmitToConn(connID, EventLoginAck, AckPayload{Joined: true})
	s.bc.EmitToRoomExcept(roomCode, connID, EventJoinedRoom, UserPayload{Username: session.Username})

	log.Info().Str("room_code", roomCode).Str("username", session.Username).Msg("user logged into room")
}

// SetRoomOpen toggles whether the room accepts joins. Organizer only.
func (s *Service) SetRoomOpen(connID string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can lock or unlock the room")
		return
	}
	room.IsOpen = open
}

// StartGame checks eligibility through the game manager and, on success,
// marks the room started and begins the round timer. Failure emits a
// private rejection naming the specific reason.
func (s *Service) StartGame(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if err := s.game.CanStartGame(session, room); err != nil {
		s.reject(connID, err.Error())
		return
	}

	room.IsStarted = true
	s.timers.SetTimer(room, room.Code)
	s.bc.EmitToRoom(room.Code, EventGameStarted, QuestionPayload{QuestionIndex: 0})

	log.Info().Str("room_code", room.Code).Msg("game started")
}

// AddAnswer toggles the caller's selection and sends the index-only
// update to the organizer's connection alone.
func (s *Service) AddAnswer(connID string, ans models.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if session == nil || room == nil {
		return
	}

	s.game.AddAnswer(session, ans, room)

	if orgConn, ok := s.organizers[room.Code]; ok {
		s.bc.EmitToConn(orgConn, EventAnswerIndex, AnswerIndexPayload{
			QuestionIndex: ans.QuestionIndex,
			ChoiceIndex:   ans.ChoiceIndex,
		})
	}
}

// ConfirmAnswer finalizes the caller's answer for the round and scores
// it. When this confirmation transitions the room to all-answered, the
// round-end broadcast fires exactly once: the duplicate-confirmation
// guard makes the transition single-shot.
func (s *Service) ConfirmAnswer(connID string, questionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !s.game.CanConfirmAnswer(session) {
		return
	}

	s.game.CheckAnswers(session, questionIndex, room)
	session.Answered = true

	if s.game.AllAnswered(room) {
		s.endRound(room, questionIndex)
	}
}

// RoundOver is the organizer-forced round end, fired on local timer
// expiry. Unanswered clients receive the finalize signal; the round then
// closes through their confirmations.
func (s *Service) RoundOver(connID string, questionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can end the round")
		return
	}
	if questionIndex < 0 || questionIndex >= len(room.Stats.Questions) {
		return
	}

	room.Stats.Questions[questionIndex].TimeFinished = true
	s.timers.Stop(room.Code)

	for id, sess := range s.sessions {
		if sess.RoomCode == room.Code && !sess.Answered && !isOrganizer(sess) {
			s.bc.EmitToConn(id, EventFinalizeAnswers, QuestionPayload{QuestionIndex: questionIndex})
		}
	}

	if s.game.AllAnswered(room) {
		s.endRound(room, questionIndex)
	}
}

// endRound broadcasts the round-end signal and closes the round's timer
// window. Callers hold s.mu and have verified the transition.
func (s *Service) endRound(room *models.Room, questionIndex int) {
	if questionIndex >= 0 && questionIndex < len(room.Stats.Questions) {
		room.Stats.Questions[questionIndex].TimeFinished = true
	}
	s.timers.Stop(room.Code)
	s.bc.EmitToRoom(room.Code, EventEndRound, QuestionPayload{QuestionIndex: questionIndex})

	log.Info().Str("room_code", room.Code).Int("question", questionIndex).Msg("round ended")
}

// NextQuestion advances the room to the next round: every session's
// per-round flags reset and the timer restarts at the base delay.
func (s *Service) NextQuestion(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can advance the question")
		return
	}

	for _, u := range room.Stats.Users {
		u.Answered = false
		u.FirstToAnswer = false
	}

	room.TickDelay = models.DefaultTickDelay
	s.timers.SetTimer(room, room.Code)
	s.bc.EmitToRoom(room.Code, EventChangeQuestion, struct{}{})
}

// PauseTimer toggles the room's round timer. Organizer only.
func (s *Service) PauseTimer(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can pause the timer")
		return
	}
	s.timers.PauseTimer(room, room.Code)
}

// PanicTimer switches the room to the accelerated tick rate near round
// expiry. Duplicate triggers while panic is already live are suppressed.
func (s *Service) PanicTimer(connID string, cmd PanicTimerCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can trigger panic mode")
		return
	}
	if room.TickDelay == timer.PanicDelay {
		return
	}

	timeLeft := time.Duration(cmd.TimeLeftSec) * time.Second
	s.timers.PanicTimer(room, room.Code, timeLeft, cmd.QuestionIndex)
}

// GivePoints applies a manual grade on an open-ended question.
func (s *Service) GivePoints(connID string, cmd GivePointsCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can grade answers")
		return
	}
	s.game.GivePoints(room, cmd.QuestionIndex, cmd.Username, cmd.PercentageGiven, cmd.PointsGiven)
}

// EndCorrection signals the room that manual grading is finished.
func (s *Service) EndCorrection(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can end correction")
		return
	}
	s.bc.EmitToRoom(room.Code, EventEndCorrection, struct{}{})
}

// BanUser adds the username to the room's ban list and forces the target
// through the same removal path as a voluntary leave.
func (s *Service) BanUser(connID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can ban users")
		return
	}

	room.Banned = append(room.Banned, username)
	log.Info().Str("room_code", room.Code).Str("username", username).Msg("user banned")

	for id, sess := range s.sessions {
		if sess.RoomCode == room.Code && strings.EqualFold(sess.Username, username) {
			s.removeConnLocked(id)
			break
		}
	}
}

// RoomMessage appends to the room's ordered chat log and fans it out.
func (s *Service) RoomMessage(connID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if session == nil || room == nil {
		return
	}

	msg := models.RoomMessage{
		Username: session.Username,
		Text:     text,
		SentAt:   s.clock.Now(),
	}
	room.Messages = append(room.Messages, msg)
	s.bc.EmitToRoom(room.Code, EventRoomMessage, RoomMessagePayload(msg))
}

// GetStats returns the caller's room stats, scoped to that room only.
func (s *Service) GetStats(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, room := s.callerRoom(connID)
	if room == nil {
		return
	}
	s.bc.EmitToConn(connID, EventStats, room.Stats)
}

// GetUserInfo returns the caller's own session.
func (s *Service) GetUserInfo(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessions[connID]
	if session == nil {
		return
	}
	s.bc.EmitToConn(connID, EventUserInfo, session)
}

// GetMessages returns the caller's room chat log.
func (s *Service) GetMessages(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, room := s.callerRoom(connID)
	if room == nil {
		return
	}
	s.bc.EmitToConn(connID, EventMessages, room.Messages)
}

// EndGame shows final results to the room, archives the summary and
// tears the room down.
func (s *Service) EndGame(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, room := s.callerRoom(connID)
	if room == nil || !isOrganizer(session) {
		s.reject(connID, "only the organizer can end the game")
		return
	}

	for _, id := range s.bc.ConnectionIDsInRoom(room.Code) {
		s.bc.EmitToConn(id, EventShowResults, room.Stats)
	}
	s.teardownLocked(room)
}

// LeaveRoom detaches the caller from its room.
func (s *Service) LeaveRoom(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeConnLocked(connID)
}

// HandleDisconnect implements CommandSink. A dropped connection follows
// the identical path as a voluntary leave.
func (s *Service) HandleDisconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeConnLocked(connID)
}

// removeConnLocked detaches one connection's session, broadcasts the
// departure, and tears the room down when the leaver was the organizer or
// the last participants of a started room. Callers hold s.mu.
func (s *Service) removeConnLocked(connID string) {
	if _, ok := s.pending[connID]; ok {
		delete(s.pending, connID)
		s.bc.LeaveRoom(connID)
		return
	}

	session := s.sessions[connID]
	if session == nil {
		return
	}
	delete(s.sessions, connID)

	session.HasLeft = true
	roomCode := session.RoomCode
	s.bc.LeaveRoom(connID)
	s.bc.EmitToRoom(roomCode, EventLeftRoom, UserPayload{Username: session.Username})

	room := s.rooms.Get(roomCode)
	if room == nil {
		return
	}

	if isOrganizer(session) || (room.IsStarted && room.Participants() <= 1) {
		s.teardownLocked(room)
	}
}

// teardownLocked destroys a room: summary handoff, timer cancellation
// strictly before the registry entry is deleted, the closing broadcast,
// and only then the individual connection removals. Callers hold s.mu.
func (s *Service) teardownLocked(room *models.Room) {
	code := room.Code

	summary := archive.GameSummary{
		Name:        room.Stats.Name,
		BestScore:   room.Stats.BestScore(),
		PlayerCount: playerCount(room.Stats),
		EndedAt:     s.clock.Now(),
	}
	go s.publishSummary(summary)

	s.timers.Stop(code)

	members := s.bc.ConnectionIDsInRoom(code)
	for _, id := range members {
		s.bc.EmitToConn(id, EventRoomClosed, struct{}{})
	}

	s.rooms.Delete(code)

	for _, id := range members {
		s.bc.LeaveRoom(id)
	}
	for id, sess := range s.sessions {
		if sess.RoomCode == code {
			delete(s.sessions, id)
		}
	}
	for id, pendingCode := range s.pending {
		if pendingCode == code {
			delete(s.pending, id)
		}
	}
	delete(s.organizers, code)

	log.Info().Str("room_code", code).Msg("room torn down")
}

// publishSummary is fire-and-forget: archive failure never blocks or
// fails teardown.
func (s *Service) publishSummary(summary archive.GameSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := s.archive.PublishGameSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Str("game", summary.Name).Msg("failed to archive game summary")
	}
}

// RunHeartbeat broadcasts the process-wide heartbeat at a fixed cadence
// until ctx is cancelled. It is independent of every room's round timer.
func (s *Service) RunHeartbeat(ctx context.Context) {
	ticker := s.clock.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.bc.EmitToAll(EventHeartbeat, HeartbeatPayload{SentAt: s.clock.Now()})
		}
	}
}

// callerRoom resolves the caller's session and room. Either may be nil;
// lookups racing room destruction are benign no-ops for the caller.
func (s *Service) callerRoom(connID string) (*models.UserSession, *models.Room) {
	session := s.sessions[connID]
	if session == nil {
		return nil, nil
	}
	return session, s.rooms.Get(session.RoomCode)
}

func (s *Service) reject(connID, message string) {
	s.bc.EmitToConn(connID, EventRejected, RejectionPayload{OK: false, Message: message})
}

func isOrganizer(session *models.UserSession) bool {
	return session != nil && strings.EqualFold(session.Username, models.OrganizerName)
}

func playerCount(stats *models.GameStats) int {
	n := 0
	for _, u := range stats.Users {
		if !strings.EqualFold(u.Username, models.OrganizerName) {
			n++
		}
	}
	return n
}
