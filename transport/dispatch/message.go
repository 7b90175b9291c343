package dispatch

import "github.com/rocketscienceinc/tictactoe-tcp-server/internal/entity"

// Request is a client command. Cell is a pointer so that a missing cell can be told apart from cell 0.
type Request struct {
	Action  string `json:"action"`
	MatchID string `json:"match_id,omitempty"`
	Cell    *int   `json:"cell,omitempty"`
}

type Response struct {
	Action string             `json:"action"`
	Player *entity.PlayerSlot `json:"player,omitempty"`
	Game   *entity.MatchState `json:"game,omitempty"`
	Board  string             `json:"board,omitempty"`
	Error  string             `json:"error,omitempty"`
	Code   string             `json:"code,omitempty"`
}

// IsError reports whether the response carries an error.
func (that *Response) IsError() bool {
	return that.Code != ""
}
