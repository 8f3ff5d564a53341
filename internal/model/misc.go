package model

import "time"

// PublicMessage is a board note shown under the daily booking listing.
type PublicMessage struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	StoreID int64  `json:"store_id"`
}

// Member is a customer record of a store's member database.
type Member struct {
	ID       int64  `json:"id"`
	StoreID  int64  `json:"store_id"`
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

// LanguagePreference is the chat language picked by a LINE user.
type LanguagePreference struct {
	LineID   string
	Language string
}

// Pre-booking limits and states.
const (
	MaxPreBookGuests      = 4
	MaxPreBookPreferences = 3

	PreBookOpen   = 0
	PreBookClosed = -1
)

// PreBookGuest is one guest of a pre-booking request.
type PreBookGuest struct {
	Masseurs []string `json:"masseurs"` // preferred staff, best first
	OilType  string   `json:"oil_type,omitempty"`
	Remark   string   `json:"remark,omitempty"`
}

// PreBooking is a customer's booking request of the `prebook` table.  Staff
// turn it into bookings by hand and then close it.
type PreBooking struct {
	ID         int64          `json:"id"`
	LineUserID string         `json:"line_user_id"`
	LineName   string         `json:"line_name"`
	Start      time.Time      `json:"start"`
	Course     string         `json:"course"`
	Guests     []PreBookGuest `json:"guests"`
	Status     int            `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}
