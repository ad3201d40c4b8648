// internal/ws/messages.go
package ws

import (
	"encoding/json"

	"github.com/wordclash/server/internal/game"
	"github.com/wordclash/server/internal/models"
)

// Command names accepted over the persistent connection.
const (
	CmdCreateRoom     = "create_room"
	CmdJoinRoom       = "join_room"
	CmdLeaveRoom      = "leave_room"
	CmdStartGame      = "start_game"
	CmdSubmitAnswer   = "submit_answer"
	CmdSkipWord       = "skip_word"
	CmdUseHint        = "use_hint"
	CmdPlayerReady    = "player_ready"
	CmdUpdateSettings = "update_settings"
	CmdRestartGame    = "restart_game"
)

// Envelope is the tagged frame every inbound command arrives in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// createRoomPayload carries the create_room command.
type createRoomPayload struct {
	UserID     string              `json:"userId,omitempty"`
	Username   string              `json:"username"`
	Mode       models.GameMode     `json:"mode"`
	Difficulty models.Difficulty   `json:"difficulty"`
	Settings   models.RoomSettings `json:"settings"`
}

// joinRoomPayload carries the join_room command.
type joinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username"`
}

// submitAnswerPayload carries the submit_answer command.
type submitAnswerPayload struct {
	Answer string `json:"answer"`
}

// useHintPayload carries the use_hint command.
type useHintPayload struct {
	HintType game.HintTier `json:"hintType"`
}

// playerReadyPayload carries the player_ready command.
type playerReadyPayload struct {
	IsReady bool `json:"isReady"`
}

// updateSettingsPayload carries the update_settings command.
type updateSettingsPayload struct {
	Settings models.RoomSettings `json:"settings"`
}
