package model

// Staff mirrors the `Staffs` table.
type Staff struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	PasswordHash string  `json:"-"` // bcrypt
	StoreID      int64   `json:"store_id"`
	Commission   float64 `json:"commission"` // profit, percent of the course price
	LineUserID   string  `json:"-"`          // empty when the staff never bound a LINE account
	IsAdmin      bool    `json:"is_admin"`
	MaxPR        int     `json:"max_pr"` // monthly public-relations ticket quota
}

// Store mirrors the `Store` table.  Key is the license key staff present at
// login; MainStore links branch stores to the store that aggregates them.
type Store struct {
	ID        int64
	Name      string
	Key       string
	MemberDB  int64
	MainStore int64
}

// GroupRoom is a LINE group the bot has joined.  Digest broadcasts go to the
// first registered room.
type GroupRoom struct {
	ID      int64
	GroupID string
}
