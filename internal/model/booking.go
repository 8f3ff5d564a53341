package model

import "time"

// Booking represents one appointment row in the `Tasks` table.  Price split
// and end time are computed once at write time and stored.
//
// Invariant: End == Start + Minutes.
type Booking struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	StaffID      int64     `json:"staff_id"`
	StaffName    string    `json:"staff_name"`
	CourseID     int64     `json:"course_id"`
	CourseName   string    `json:"course_name"`
	Price        int64     `json:"price"`
	StaffShare   int64     `json:"staff_share"`   // master_income, includes the late surcharge
	CompanyShare int64     `json:"company_share"` // company_income
	Minutes      int       `json:"minutes"`
	StoreID      int64     `json:"store_id"`
	Note         string    `json:"note"`
	MemberID     string    `json:"member_id,omitempty"`
	Confirmed    bool      `json:"confirmed"`
	TicketType   int64     `json:"ticket_type,omitempty"` // usetickettype, 0 when no ticket was redeemed
	ExtraData    string    `json:"exdata,omitempty"`
	History      string    `json:"history,omitempty"` // one line per edit, shown to staff
	// PrivateHistory adds price changes to each History line; admins only.
	PrivateHistory string `json:"-"`
}

// Course is a catalog entry of the `Course` table.
type Course struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Minutes int    `json:"minutes"`
	StoreID int64  `json:"store_id"`
}
