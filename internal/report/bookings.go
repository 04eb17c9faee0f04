// Package report renders admin spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Summary"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var bookingHeader = []any{
	"ID", "User ID", "Room ID", "Check-in", "Check-out", "Nights",
	"Guests", "Total Price", "Status", "Cancellation Reason", "Created At",
}

// WriteBookings writes one row per booking plus a per-status summary sheet.
func WriteBookings(w io.Writer, bookings []domain.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(bookingsSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	header := make([]any, len(bookingHeader))
	for i, h := range bookingHeader {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	type tally struct {
		count   int
		revenue decimal.Decimal
	}
	totals := map[domain.BookingStatus]*tally{}

	for i, b := range bookings {
		reason := ""
		if b.CancellationReason != nil {
			reason = *b.CancellationReason
		}
		row := []any{
			b.ID, b.UserID, b.RoomID, b.CheckIn.String(), b.CheckOut.String(), b.Nights(),
			b.GuestCount, b.TotalPrice.InexactFloat64(), string(b.Status), reason, b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write booking %d: %w", b.ID, err)
		}

		t, ok := totals[b.Status]
		if !ok {
			t = &tally{}
			totals[b.Status] = t
		}
		t.count++
		t.revenue = t.revenue.Add(b.TotalPrice)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush bookings: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Status", "Bookings", "Total"}); err != nil {
		return err
	}
	row := 2
	for _, st := range []domain.BookingStatus{
		domain.BookingPending, domain.BookingConfirmed, domain.BookingCompleted, domain.BookingCancelled,
	} {
		t := totals[st]
		if t == nil {
			t = &tally{}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{string(st), t.count, t.revenue.InexactFloat64()}); err != nil {
			return err
		}
		row++
	}

	return f.Write(w)
}
