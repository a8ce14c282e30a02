package postgres

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/migrate"
)

const bookingsTable = "bookings"

var bookingColumns = []string{
	"id", "doctor_id", "patient_id", "patient_name", "patient_mobile", "patient_email",
	"date", "time", "case_description", "booking_number", "status", "locale",
	"created_at", "updated_at",
}

type bookings struct{ s *store }

func scanBooking(rs entsql.ColumnScanner) (*repo.Booking, error) {
	var (
		bk          repo.Booking
		patientID   uuid.NullUUID
		email, desc entsql.NullString
	)
	if err := rs.Scan(&bk.ID, &bk.DoctorID, &patientID, &bk.PatientName, &bk.PatientMobile, &email,
		&bk.Date, &bk.Time, &desc, &bk.BookingNumber, &bk.Status, &bk.Locale,
		&bk.CreatedAt, &bk.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	if patientID.Valid {
		id := patientID.UUID
		bk.PatientID = &id
	}
	bk.PatientEmail = email.String
	bk.CaseDescription = desc.String
	return &bk, nil
}

func (r bookings) CreateIfAbsent(ctx context.Context, bk *repo.Booking) (bool, error) {
	now := r.s.now()
	bk.CreatedAt = now
	bk.UpdatedAt = now

	ins := insertBooking(bk)

	n, err := exec(ctx, r.s.drv, ins)
	if err != nil {
		if isUniqueViolation(err) {
			return false, repo.ErrConflict
		}
		return false, fmt.Errorf("insert booking: %w", err)
	}
	return n == 1, nil
}

// insertBooking builds an insert that skips the row when an active booking
// already holds the same slot.
func insertBooking(bk *repo.Booking) *entsql.InsertBuilder {
	var patientID any
	if bk.PatientID != nil {
		patientID = *bk.PatientID
	}

	return builder().Insert(bookingsTable).
		Columns(bookingColumns...).
		Values(bk.ID, bk.DoctorID, patientID, bk.PatientName, bk.PatientMobile, nullString(bk.PatientEmail),
			bk.Date, bk.Time, nullString(bk.CaseDescription), bk.BookingNumber, bk.Status, bk.Locale,
			bk.CreatedAt, bk.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("doctor_id", "date", "time"),
			entsql.ConflictWhere(entsql.ExprP(migrate.ActiveBookingPredicate)),
			entsql.DoNothing(),
		)
}

func (r bookings) Get(ctx context.Context, id uuid.UUID) (*repo.Booking, error) {
	b := builder()
	sel := b.Select(bookingColumns...).From(b.Table(bookingsTable)).Where(entsql.EQ("id", id))

	var out *repo.Booking
	err := queryOne(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) (err error) {
		out, err = scanBooking(rs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r bookings) list(ctx context.Context, where *entsql.Predicate) ([]*repo.Booking, error) {
	b := builder()
	sel := b.Select(bookingColumns...).
		From(b.Table(bookingsTable)).
		Where(where).
		OrderBy("date", "time", "created_at")

	out := make([]*repo.Booking, 0)
	err := query(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) error {
		bk, err := scanBooking(rs)
		if err != nil {
			return err
		}
		out = append(out, bk)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func (r bookings) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]*repo.Booking, error) {
	where := entsql.EQ("doctor_id", doctorID)
	if date != "" {
		where = entsql.And(where, entsql.EQ("date", date))
	}
	return r.list(ctx, where)
}

func (r bookings) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*repo.Booking, error) {
	return r.list(ctx, entsql.EQ("patient_id", patientID))
}

func (r bookings) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	b := builder()
	sel := b.Select("time").
		From(b.Table(bookingsTable)).
		Where(entsql.And(
			entsql.EQ("doctor_id", doctorID),
			entsql.EQ("date", date),
			entsql.NEQ("status", repo.BookingCancelled),
		)).
		OrderBy("time")

	out := make([]string, 0)
	err := query(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) error {
		var t string
		if err := rs.Scan(&t); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query booked times: %w", err)
	}
	return out, nil
}

func (r bookings) UpdateStatus(ctx context.Context, id uuid.UUID, from, to repo.BookingStatus) (bool, error) {
	upd := builder().Update(bookingsTable).
		Set("status", to).
		Set("updated_at", r.s.now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", from)))

	n, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	// Distinguish a stale status from a missing row.
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
