package model

// StoreScope is the request-scoped identity of an authenticated staff
// member.  It travels with the request instead of process-wide globals.
type StoreScope struct {
	StoreID   int64
	StaffID   int64
	StaffName string
	Admin     bool
}
