package web

// DisplayPlayer is one score column on the table.
type DisplayPlayer struct {
	Label      string
	RoundScore int
	TotalScore int
	IsActive   bool
	IsWinner   bool
}

// DisplayState is everything the watch page renders.
type DisplayState struct {
	RoomCode     string
	HostIdentity string
	Status       string
	StatusLabel  string
	RoundLabel   string
	Players      []DisplayPlayer
	Waiting      bool
	Notice       string
	LastSynced   string
	RefreshAfter int
	Matches      []MatchRow
}

// MatchRow is one archived match in the history table.
type MatchRow struct {
	MatchID  string
	Winner   string
	Score    string
	Rounds   int
	PlayedAt string
}
