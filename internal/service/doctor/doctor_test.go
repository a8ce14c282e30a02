package doctor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/internal/repo"
	"github.com/Alijeyrad/teleclinic_backend/internal/repo/memory"
)

func TestCreateAndGet(t *testing.T) {
	svc := New(memory.NewClient())
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateRequest{
		Name:         " Dr. Example ",
		Specialty:    "cardiology",
		WorkingHours: repo.WorkingHours{"Monday": {Enabled: true, Start: "9:00", End: "12:00"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Equal(t, "Dr. Example", d.Name)
	assert.Equal(t, 30, d.AppointmentDuration)
	assert.Equal(t, repo.DayHours{Enabled: true, Start: "09:00", End: "12:00"}, d.WorkingHours["monday"])

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	svc := New(memory.NewClient())

	_, err := svc.Create(context.Background(), CreateRequest{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), CreateRequest{Name: "A", AppointmentDuration: 500})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), CreateRequest{
		Name:         "A",
		WorkingHours: repo.WorkingHours{"monday": {Enabled: true, Start: "12:00", End: "09:00"}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListPaging(t *testing.T) {
	svc := New(memory.NewClient())
	ctx := context.Background()

	for i := range 5 {
		specialty := "general"
		if i%2 == 0 {
			specialty = "dermatology"
		}
		_, err := svc.Create(ctx, CreateRequest{Name: fmt.Sprintf("Dr. %d", i), Specialty: specialty})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Dr. 2", page[0].Name)

	derm, err := svc.List(ctx, ListRequest{Specialty: "dermatology"})
	require.NoError(t, err)
	assert.Len(t, derm, 3)
}
