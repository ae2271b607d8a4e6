package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

// CommandType enumerates every client command. The dispatch switch below
// is exhaustive over this set; an unknown type is logged and dropped.
type CommandType string

const (
	CmdCreateRoom    CommandType = "create-room"
	CmdJoinRoom      CommandType = "join-room"
	CmdLogin         CommandType = "login"
	CmdRoomMessage   CommandType = "room-message"
	CmdAddAnswer     CommandType = "add-answer"
	CmdConfirmAnswer CommandType = "confirm-answer"
	CmdRoundOver     CommandType = "round-over"
	CmdNextQuestion  CommandType = "next-question"
	CmdStartGame     CommandType = "start-game"
	CmdLockRoom      CommandType = "lock-room"
	CmdUnlockRoom    CommandType = "unlock-room"
	CmdBanUser       CommandType = "ban-user"
	CmdGivePoints    CommandType = "give-points"
	CmdEndCorrection CommandType = "end-correction"
	CmdPauseTimer    CommandType = "pause-timer"
	CmdPanicTimer    CommandType = "panic-timer"
	CmdGetStats      CommandType = "get-stats"
	CmdGetUserInfo   CommandType = "get-user-info"
	CmdGetMessages   CommandType = "get-messages"
	CmdEndGame       CommandType = "end-game"
	CmdLogout        CommandType = "logout"
)

// CommandEnvelope is the wire format of every client command.
type CommandEnvelope struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Command payloads.

type CreateRoomCommand struct {
	QuizID string `json:"quiz_id"`
}

type JoinRoomCommand struct {
	RoomCode string `json:"room_code"`
}

type LoginCommand struct {
	Username string `json:"username"`
}

type RoomMessageCommand struct {
	Text string `json:"text"`
}

type ConfirmAnswerCommand struct {
	QuestionIndex int `json:"question_index"`
}

type RoundOverCommand struct {
	QuestionIndex int `json:"question_index"`
}

type BanUserCommand struct {
	Username string `json:"username"`
}

type GivePointsCommand struct {
	QuestionIndex   int     `json:"question_index"`
	Username        string  `json:"username"`
	PercentageGiven int     `json:"percentage_given"`
	PointsGiven     float64 `json:"points_given"`
}

type PanicTimerCommand struct {
	TimeLeftSec   int `json:"time_left_sec"`
	QuestionIndex int `json:"question_index"`
}

// HandleCommand implements CommandSink: it decodes the envelope and
// routes it to the matching service operation. Malformed traffic never
// crosses back over the transport boundary; it is logged and dropped.
func (s *Service) HandleCommand(connID string, raw []byte) {
	var env CommandEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Str("connection_id", connID).Msg("malformed command envelope")
		return
	}

	if err := s.dispatch(connID, env); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", connID).
			Str("command", string(env.Type)).
			Msg("malformed command payload")
	}
}

func (s *Service) dispatch(connID string, env CommandEnvelope) error {
	switch env.Type {
	case CmdCreateRoom:
		var cmd CreateRoomCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.CreateRoom(connID, cmd.QuizID)

	case CmdJoinRoom:
		var cmd JoinRoomCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.JoinRoom(connID, cmd.RoomCode)

	case CmdLogin:
		var cmd LoginCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.Login(connID, cmd.Username)

	case CmdRoomMessage:
		var cmd RoomMessageCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.RoomMessage(connID, cmd.Text)

	case CmdAddAnswer:
		var cmd models.Answer
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.AddAnswer(connID, cmd)

	case CmdConfirmAnswer:
		var cmd ConfirmAnswerCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.ConfirmAnswer(connID, cmd.QuestionIndex)

	case CmdRoundOver:
		var cmd RoundOverCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.RoundOver(connID, cmd.QuestionIndex)

	case CmdNextQuestion:
		s.NextQuestion(connID)

	case CmdStartGame:
		s.StartGame(connID)

	case CmdLockRoom:
		s.SetRoomOpen(connID, false)

	case CmdUnlockRoom:
		s.SetRoomOpen(connID, true)

	case CmdBanUser:
		var cmd BanUserCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.BanUser(connID, cmd.Username)

	case CmdGivePoints:
		var cmd GivePointsCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.GivePoints(connID, cmd)

	case CmdEndCorrection:
		s.EndCorrection(connID)

	case CmdPauseTimer:
		s.PauseTimer(connID)

	case CmdPanicTimer:
		var cmd PanicTimerCommand
		if err := unmarshalData(env.Data, &cmd); err != nil {
			return err
		}
		s.PanicTimer(connID, cmd)

	case CmdGetStats:
		s.GetStats(connID)

	case CmdGetUserInfo:
		s.GetUserInfo(connID)

	case CmdGetMessages:
		s.GetMessages(connID)

	case CmdEndGame:
		s.EndGame(connID)

	case CmdLogout:
		s.LeaveRoom(connID)

	default:
		log.Warn().Str("command", string(env.Type)).Msg("unknown command type - ignoring")
	}
	return nil
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing command payload")
	}
	return json.Unmarshal(data, v)
}
