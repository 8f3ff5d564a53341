package model

import "time"

// PublicRelationsTicketType is the ticket category governed by a per-staff
// monthly quota instead of prepaid serial numbers.
const PublicRelationsTicketType int64 = 2

// MaxSerialsPerIssue bounds one issue batch.
const MaxSerialsPerIssue = 4

// TicketType mirrors `TicketType`.
type TicketType struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ExpDays int    `json:"exp_days"`
}

// Ticket mirrors `Tickets`.  A serial is unique within (StoreID, TypeID).
type Ticket struct {
	ID           int64      `json:"id"`
	TypeID       int64      `json:"type_id"`
	TypeName     string     `json:"type_name"`
	Serial       string     `json:"serial"`
	CustomerName string     `json:"customer_name"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	StaffID      int64      `json:"staff_id"`
	StaffName    string     `json:"staff_name"`
	Used         bool       `json:"used"`
	UsedByID     int64      `json:"used_by_id,omitempty"`
	UsedByName   string     `json:"used_by_name,omitempty"`
	UsedTaskID   int64      `json:"used_task_id,omitempty"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	StoreID      int64      `json:"store_id"`
}
