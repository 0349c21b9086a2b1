package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StartGameRequest is the request body for starting a solo game
type StartGameRequest struct {
	DigitCount int    `json:"digit_count,omitempty"`
	Rule       string `json:"rule,omitempty"`
}

// GuessRequest is the request body for submitting a guess
type GuessRequest struct {
	Guess string `json:"guess"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Mode           string `json:"mode"`
	DigitCount     int    `json:"digit_count,omitempty"`
	WinningPolicy  string `json:"winning_policy,omitempty"`
	Rule           string `json:"rule,omitempty"`
	OpponentSecret string `json:"opponent_secret,omitempty"`
}

// JoinRoomRequest is the request body for joining a room by code
type JoinRoomRequest struct {
	Code   string `json:"code"`
	Secret string `json:"secret,omitempty"`
}

// SetSecretRequest is the request body for supplying the opponent's secret
type SetSecretRequest struct {
	Secret string `json:"secret"`
}

// ResetRoomRequest is the request body for resetting a room
type ResetRoomRequest struct {
	OpponentSecret string `json:"opponent_secret,omitempty"`
}
