package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/spa-booking-bot/internal/config"
	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// NoUnconfirmedText is the digest when every upcoming booking is confirmed.
const NoUnconfirmedText = "目前沒有未確認的預約。"

// BookingReader is the read side of the booking table.
type BookingReader interface {
	ListRange(ctx context.Context, storeIDs []int64, from, to time.Time) ([]model.Booking, error)
	ListUnconfirmed(ctx context.Context, now time.Time) ([]model.Booking, error)
}

// NoteReader lists board notes.
type NoteReader interface {
	ListByStore(ctx context.Context, storeID int64) ([]model.PublicMessage, error)
}

// Reports renders the chat-style booking listings and the xlsx export.
type Reports struct {
	bookings BookingReader
	notes    NoteReader
	stores   StoreLookup
	dir      *config.StoreDirectory
	loc      *time.Location
	now      func() time.Time
}

func NewReports(bookings BookingReader, notes NoteReader, stores StoreLookup, dir *config.StoreDirectory, loc *time.Location) *Reports {
	if loc == nil {
		loc = time.UTC
	}
	return &Reports{bookings: bookings, notes: notes, stores: stores, dir: dir, loc: loc, now: time.Now}
}

// ListingOptions select what a listing shows.  Days defaults to one.
type ListingOptions struct {
	Day         time.Time
	Days        int
	ShowSerials bool // prefix booking and note ids
	ShowMembers bool // append member ids to customer names
}

// DayRange returns [from, to) covering days calendar days from day in loc.
func DayRange(day time.Time, days int, loc *time.Location) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	d := day.In(loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, days)
}

// Listing renders the bookings of the caller's store.  Customer names are
// masked for non-admin staff.  Totals come from the stored shares.
func (r *Reports) Listing(ctx context.Context, scope model.StoreScope, opt ListingOptions) (string, error) {
	from, to := DayRange(opt.Day, opt.Days, r.loc)
	rows, err := r.bookings.ListRange(ctx, []int64{scope.StoreID}, from, to)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}
	notes, err := r.notes.ListByStore(ctx, scope.StoreID)
	if err != nil {
		return "", fmt.Errorf("list notes: %w", err)
	}

	name := r.dir.Name(scope.StoreID)
	var (
		sb             strings.Builder
		company, staff int64
		lastDay        string
	)
	fmt.Fprintf(&sb, "[%s預約]\n", name)
	for _, b := range rows {
		start := b.Start.In(r.loc)
		if day := start.Format("1/2"); day != lastDay {
			lastDay = day
			sb.WriteString(day + "\n")
		}
		customer := b.CustomerName
		if !scope.Admin {
			customer = maskName(customer)
		}
		if opt.ShowMembers {
			customer += "(" + b.MemberID + ")"
		}
		if opt.ShowSerials {
			fmt.Fprintf(&sb, "[%d] %s %s %d %s %s\n", b.ID, start.Format("15:04"), customer, b.Minutes, b.StaffName, b.Note)
		} else {
			fmt.Fprintf(&sb, "%s %s %d %s %s(%d/%d)\n", start.Format("15:04"), customer, b.Minutes, b.StaffName, b.Note, b.StaffShare, b.CompanyShare)
		}
		company += b.CompanyShare
		staff += b.StaffShare
	}
	fmt.Fprintf(&sb, "\n[%s備註]", name)
	for _, n := range notes {
		if opt.ShowSerials {
			fmt.Fprintf(&sb, "\n[%d] %s", n.ID, n.Message)
		} else {
			sb.WriteString("\n" + n.Message)
		}
	}
	fmt.Fprintf(&sb, "\n公司(%d)師傅(%d)", company, staff)
	return sb.String(), nil
}

// Summary totals the bookings of every store aggregated under the caller's
// main store.
func (r *Reports) Summary(ctx context.Context, scope model.StoreScope, day time.Time, days int) (string, error) {
	store, err := r.stores.GetByID(ctx, scope.StoreID)
	if err != nil {
		return "", fmt.Errorf("store %d: %w", scope.StoreID, err)
	}
	mainID := store.MainStore
	if mainID == 0 {
		mainID = store.ID
	}
	ids, err := r.stores.Branches(ctx, mainID)
	if err != nil {
		return "", fmt.Errorf("branches of %d: %w", mainID, err)
	}
	if len(ids) == 0 {
		ids = []int64{mainID}
	}
	from, to := DayRange(day, days, r.loc)
	rows, err := r.bookings.ListRange(ctx, ids, from, to)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}
	var company, staff int64
	for _, b := range rows {
		company += b.CompanyShare
		staff += b.StaffShare
	}
	return fmt.Sprintf("[%s預約]\n\n共:%d人\n公司(%d)師傅(%d)", r.dir.Name(mainID), len(rows), company, staff), nil
}

// UnconfirmedDigest lists every upcoming booking of every store that its
// staff member has not confirmed yet.
func (r *Reports) UnconfirmedDigest(ctx context.Context) (string, error) {
	rows, err := r.bookings.ListUnconfirmed(ctx, r.now())
	if err != nil {
		return "", fmt.Errorf("list unconfirmed: %w", err)
	}
	if len(rows) == 0 {
		return NoUnconfirmedText, nil
	}
	var sb strings.Builder
	sb.WriteString("以下是所有未確認的預約：\n\n")
	for _, b := range rows {
		start := b.Start.In(r.loc)
		fmt.Fprintf(&sb, "日期：%s\n店家：%s\n時間：%s (%d分鐘)\n客戶：%s\n師傅：%s\n備註:%s\n\n",
			start.Format("2006/01/02"), r.dir.Name(b.StoreID), start.Format("15:04"), b.Minutes,
			b.CustomerName, b.StaffName, b.Note)
	}
	return sb.String(), nil
}

const exportSheet = "預約"

var exportHeader = []interface{}{"編號", "日期", "時間", "結束", "客戶", "會員", "課程", "分鐘", "師傅", "價格", "師傅收入", "公司收入", "備註", "已確認"}

// ExportXLSX writes the store's bookings of [day, day+days) as a workbook.
func (r *Reports) ExportXLSX(ctx context.Context, scope model.StoreScope, day time.Time, days int) ([]byte, error) {
	from, to := DayRange(day, days, r.loc)
	rows, err := r.bookings.ListRange(ctx, []int64{scope.StoreID}, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "N1", style)
	}

	for i, b := range rows {
		start, end := b.Start.In(r.loc), b.End.In(r.loc)
		customer := b.CustomerName
		if !scope.Admin {
			customer = maskName(customer)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			b.ID, start.Format("2006/01/02"), start.Format("15:04"), end.Format("15:04"),
			customer, b.MemberID, b.CourseName, b.Minutes, b.StaffName,
			b.Price, b.StaffShare, b.CompanyShare, b.Note, b.Confirmed,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// maskName keeps the first character of a customer name.
func maskName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return "**"
	}
	return string(r) + "**"
}

// GroupFinder returns the group room digests are broadcast to.
type GroupFinder interface {
	First(ctx context.Context) (string, error)
}

// DigestBroadcaster pushes the unconfirmed digest into the registered group.
type DigestBroadcaster struct {
	reports *Reports
	groups  GroupFinder
	push    NoticePusher
}

func NewDigestBroadcaster(reports *Reports, groups GroupFinder, push NoticePusher) *DigestBroadcaster {
	return &DigestBroadcaster{reports: reports, groups: groups, push: push}
}

// Broadcast sends the digest and returns the text that was sent.
func (d *DigestBroadcaster) Broadcast(ctx context.Context) (string, error) {
	text, err := d.reports.UnconfirmedDigest(ctx)
	if err != nil {
		return "", err
	}
	group, err := d.groups.First(ctx)
	if err != nil {
		return "", fmt.Errorf("group room: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultNoticeTimeout)
	defer cancel()
	if err := d.push.PushNotice(ctx, group, text, ""); err != nil {
		return "", fmt.Errorf("push digest: %w", err)
	}
	return text, nil
}
