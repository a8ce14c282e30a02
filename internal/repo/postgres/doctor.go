package postgres

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
)

const doctorsTable = "doctors"

var doctorColumns = []string{
	"id", "name", "specialty", "working_hours", "schedule",
	"appointment_duration", "created_at", "updated_at",
}

type doctors struct{ s *store }

func scanDoctor(rs entsql.ColumnScanner) (*repo.Doctor, error) {
	var (
		d              repo.Doctor
		hours, legacy []byte
	)
	if err := rs.Scan(&d.ID, &d.Name, &d.Specialty, &hours, &legacy,
		&d.AppointmentDuration, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	var err error
	if d.WorkingHours, err = decodeHours(hours); err != nil {
		return nil, fmt.Errorf("decode working_hours of doctor %s: %w", d.ID, err)
	}
	if d.LegacySchedule, err = decodeHours(legacy); err != nil {
		return nil, fmt.Errorf("decode schedule of doctor %s: %w", d.ID, err)
	}
	return &d, nil
}

func (r doctors) Create(ctx context.Context, d *repo.Doctor) error {
	hours, err := jsonValue(d.WorkingHours)
	if err != nil {
		return fmt.Errorf("encode working hours: %w", err)
	}
	legacy, err := jsonValue(d.LegacySchedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	now := r.s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	ins := builder().Insert(doctorsTable).
		Columns(doctorColumns...).
		Values(d.ID, d.Name, d.Specialty, hours, legacy, d.AppointmentDuration, d.CreatedAt, d.UpdatedAt)
	if _, err := exec(ctx, r.s.drv, ins); err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r doctors) Get(ctx context.Context, id uuid.UUID) (*repo.Doctor, error) {
	b := builder()
	sel := b.Select(doctorColumns...).From(b.Table(doctorsTable)).Where(entsql.EQ("id", id))

	var out *repo.Doctor
	err := queryOne(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) (err error) {
		out, err = scanDoctor(rs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r doctors) List(ctx context.Context, f repo.DoctorFilter) ([]*repo.Doctor, error) {
	b := builder()
	sel := b.Select(doctorColumns...).From(b.Table(doctorsTable)).OrderBy("name", "id")
	if f.Specialty != "" {
		sel.Where(entsql.EQ("specialty", f.Specialty))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}

	out := make([]*repo.Doctor, 0)
	err := query(ctx, r.s.drv, sel, func(rs entsql.ColumnScanner) error {
		d, err := scanDoctor(rs)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return out, nil
}

func (r doctors) UpdateSchedule(ctx context.Context, id uuid.UUID, hours repo.WorkingHours, durationMinutes int) error {
	v, err := jsonValue(hours)
	if err != nil {
		return fmt.Errorf("encode working hours: %w", err)
	}

	upd := builder().Update(doctorsTable).
		Set("working_hours", v).
		Set("appointment_duration", durationMinutes).
		Set("updated_at", r.s.now()).
		Where(entsql.EQ("id", id))
	n, err := exec(ctx, r.s.drv, upd)
	if err != nil {
		return fmt.Errorf("update doctor schedule: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}
