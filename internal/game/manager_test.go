package game_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/o-benz/SmartyShowdown-sub000/internal/game"
	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

func makeRoom(users ...*models.UserSession) *models.Room {
	return &models.Room{
		Code: "ROOM",
		Stats: &models.GameStats{
			Name: "quiz",
			Questions: []models.QuestionStats{
				{
					Title:  "q0",
					Type:   models.QuestionTypeSingleChoice,
					Points: 10,
					Lines: []models.StatLine{
						{Label: "A"},
						{Label: "B", IsCorrect: true},
						{Label: "C"},
						{Label: "D", IsCorrect: true},
					},
				},
				{
					Title:  "q1",
					Type:   models.QuestionTypeOpenEnded,
					Points: 20,
				},
			},
			Users: users,
		},
		TickDelay: models.DefaultTickDelay,
	}
}

func linesHolding(q *models.QuestionStats, username string) []string {
	var labels []string
	for i := range q.Lines {
		if q.Lines[i].HasPicker(username) {
			labels = append(labels, q.Lines[i].Label)
		}
	}
	return labels
}

func TestManager_AddAnswer(t *testing.T) {
	m := game.NewManager()

	t.Run("selection moves between lines, never duplicates", func(t *testing.T) {
		alice := models.NewUserSession("alice", "ROOM")
		room := makeRoom(alice)
		q := &room.Stats.Questions[0]

		m.AddAnswer(alice, models.Answer{QuestionIndex: 0, ChoiceIndex: 1}, room)
		require.Equal(t, []string{"B"}, linesHolding(q, "alice"))

		m.AddAnswer(alice, models.Answer{QuestionIndex: 0, ChoiceIndex: 2}, room)
		require.Equal(t, []string{"C"}, linesHolding(q, "alice"),
			"username must occupy at most one line per question")
	})

	t.Run("re-selecting the held line clears the selection", func(t *testing.T) {
		alice := models.NewUserSession("alice", "ROOM")
		room := makeRoom(alice)

		m.AddAnswer(alice, models.Answer{QuestionIndex: 0, ChoiceIndex: 1}, room)
		m.AddAnswer(alice, models.Answer{QuestionIndex: 0, ChoiceIndex: 1}, room)
		require.Empty(t, linesHolding(&room.Stats.Questions[0], "alice"))
	})

	t.Run("out-of-range indices and nil room are no-ops", func(t *testing.T) {
		alice := models.NewUserSession("alice", "ROOM")
		room := makeRoom(alice)

		m.AddAnswer(alice, models.Answer{QuestionIndex: 5, ChoiceIndex: 0}, room)
		m.AddAnswer(alice, models.Answer{QuestionIndex: 0, ChoiceIndex: 9}, room)
		m.AddAnswer(alice, models.Answer{QuestionIndex: -1, ChoiceIndex: 0}, room)
		m.AddAnswer(alice, models.Answer{QuestionIndex: 0, ChoiceIndex: 0}, nil)
		require.Empty(t, linesHolding(&room.Stats.Questions[0], "alice"))
	})
}

func TestManager_AllAnswered(t *testing.T) {
	m := game.NewManager()

	organizer := models.NewUserSession(models.OrganizerName, "ROOM")
	alice := models.NewUserSession("alice", "ROOM")
	bob := models.NewUserSession("bob", "ROOM")
	room := makeRoom(organizer, alice, bob)

	require.False(t, m.AllAnswered(room))

	alice.Answered = true
	require.False(t, m.AllAnswered(room), "bob has not answered")

	bob.Answered = true
	require.True(t, m.AllAnswered(room), "organizer never blocks round end")
}

func TestManager_AllAnswered_DepartedSessionDoesNotBlock(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	bob := models.NewUserSession("bob", "ROOM")
	bob.HasLeft = true
	room := makeRoom(alice, bob)

	alice.Answered = true
	require.True(t, m.AllAnswered(room),
		"a departed unanswered session must not block the round")
}

func TestManager_AllAnswered_NilRoom(t *testing.T) {
	m := game.NewManager()
	require.False(t, m.AllAnswered(nil),
		"a missing room must never read as round complete")
}

func TestManager_CanConfirmAnswer(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	require.True(t, m.CanConfirmAnswer(alice))

	alice.Answered = true
	require.False(t, m.CanConfirmAnswer(alice))

	require.False(t, m.CanConfirmAnswer(nil))
}

func TestManager_CheckAnswers_ExactSetScoring(t *testing.T) {
	m := game.NewManager()

	tests := map[string]struct {
		choices []int
		want    float64
	}{
		"all correct lines selected scores full points": {choices: []int{1, 3}, want: 12}, // first correct, bonus applies
		"partial selection scores zero":                 {choices: []int{1}, want: 0},
		"over-selection scores zero":                    {choices: []int{1, 2, 3}, want: 0},
		"wrong line only scores zero":                   {choices: []int{0}, want: 0},
		"no selection scores zero":                      {choices: nil, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			alice := models.NewUserSession("alice", "ROOM")
			room := makeRoom(alice)
			q := &room.Stats.Questions[0]
			for _, c := range tt.choices {
				q.Lines[c].Pickers = append(q.Lines[c].Pickers, "alice")
			}

			m.CheckAnswers(alice, 0, room)
			require.Equal(t, tt.want, alice.Score)
		})
	}
}

func TestManager_CheckAnswers_FirstCorrectEarnsBonus(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	bob := models.NewUserSession("bob", "ROOM")
	room := makeRoom(alice, bob)
	q := &room.Stats.Questions[0]
	q.Lines[1].Pickers = []string{"alice", "bob"}
	q.Lines[3].Pickers = []string{"alice", "bob"}

	m.CheckAnswers(alice, 0, room)
	m.CheckAnswers(bob, 0, room)

	require.Equal(t, 12.0, alice.Score, "first correct answer earns the multiplier")
	require.Equal(t, 1, alice.BonusCount)
	require.True(t, alice.FirstToAnswer)

	require.Equal(t, 10.0, bob.Score, "only one bonus per round")
	require.Zero(t, bob.BonusCount)
}

func TestManager_CheckAnswers_NoBonusAfterTimeExpired(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	bob := models.NewUserSession("bob", "ROOM")
	room := makeRoom(alice, bob)
	q := &room.Stats.Questions[0]
	q.TimeFinished = true
	q.Lines[1].Pickers = []string{"alice"}
	q.Lines[3].Pickers = []string{"alice"}

	m.CheckAnswers(alice, 0, room)
	require.Equal(t, 10.0, alice.Score, "expired round pays base points only")
	require.False(t, alice.FirstToAnswer)
}

func TestManager_CheckAnswers_SoloPlayerKeepsBonusAfterExpiry(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	room := makeRoom(alice)
	q := &room.Stats.Questions[0]
	q.TimeFinished = true
	q.Lines[1].Pickers = []string{"alice"}
	q.Lines[3].Pickers = []string{"alice"}

	m.CheckAnswers(alice, 0, room)
	require.Equal(t, 12.0, alice.Score)
}

func TestManager_CheckAnswers_OpenEndedIsManualOnly(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	room := makeRoom(alice)

	m.CheckAnswers(alice, 1, room)
	require.Zero(t, alice.Score, "open-ended questions are graded through GivePoints")
}

func TestManager_CanStartGame(t *testing.T) {
	m := game.NewManager()

	organizer := models.NewUserSession(models.OrganizerName, "ROOM")
	alice := models.NewUserSession("alice", "ROOM")

	t.Run("non-organizer cannot start", func(t *testing.T) {
		room := makeRoom(organizer, alice)
		room.IsOpen = false
		require.ErrorIs(t, m.CanStartGame(alice, room), game.ErrNotOrganizer)
		require.ErrorIs(t, m.CanStartGame(nil, room), game.ErrNotOrganizer)
	})

	t.Run("unlocked room is not ready", func(t *testing.T) {
		room := makeRoom(organizer, alice)
		room.IsOpen = true
		require.ErrorIs(t, m.CanStartGame(organizer, room), game.ErrRoomNotReady)
	})

	t.Run("locked empty room is not ready", func(t *testing.T) {
		room := makeRoom(organizer)
		room.IsOpen = false
		require.ErrorIs(t, m.CanStartGame(organizer, room), game.ErrRoomNotReady)
	})

	t.Run("locked room with a participant starts", func(t *testing.T) {
		room := makeRoom(organizer, alice)
		room.IsOpen = false
		require.NoError(t, m.CanStartGame(organizer, room))
	})
}

func TestManager_GivePoints(t *testing.T) {
	m := game.NewManager()

	alice := models.NewUserSession("alice", "ROOM")
	room := makeRoom(alice)

	m.GivePoints(room, 1, "alice", 50, 10)
	require.Equal(t, 10.0, alice.Score)
	require.Equal(t, []string{"alice"}, room.Stats.Questions[1].PointsGiven.Half)

	m.GivePoints(room, 1, "alice", 100, 20)
	require.Equal(t, 30.0, alice.Score)
	require.Equal(t, []string{"alice"}, room.Stats.Questions[1].PointsGiven.All)

	m.GivePoints(room, 1, "alice", 0, 0)
	require.Equal(t, 30.0, alice.Score)
	require.Equal(t, []string{"alice"}, room.Stats.Questions[1].PointsGiven.None)

	m.GivePoints(room, 1, "ghost", 100, 20)
	require.Equal(t, 30.0, alice.Score, "unknown username is a no-op")
}
