// Package migrate holds the relational schema and applies it with ent's
// schema migrator.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var textType = map[string]string{dialect.Postgres: "text"}

var (
	DoctorsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Size: 200},
		{Name: "specialty", Type: field.TypeString, Size: 120, Default: ""},
		{Name: "working_hours", Type: field.TypeJSON, Nullable: true},
		{Name: "schedule", Type: field.TypeJSON, Nullable: true},
		{Name: "appointment_duration", Type: field.TypeInt, Default: 30},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	DoctorsTable = &schema.Table{
		Name:       "doctors",
		Columns:    DoctorsColumns,
		PrimaryKey: []*schema.Column{DoctorsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "doctors_specialty", Columns: []*schema.Column{DoctorsColumns[2]}},
		},
	}

	BookingsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "doctor_id", Type: field.TypeUUID},
		{Name: "patient_id", Type: field.TypeUUID, Nullable: true},
		{Name: "patient_name", Type: field.TypeString, Size: 200},
		{Name: "patient_mobile", Type: field.TypeString, Size: 32},
		{Name: "patient_email", Type: field.TypeString, Size: 254, Nullable: true},
		{Name: "date", Type: field.TypeString, Size: 10},
		{Name: "time", Type: field.TypeString, Size: 5},
		{Name: "case_description", Type: field.TypeString, SchemaType: textType, Nullable: true},
		{Name: "booking_number", Type: field.TypeString, Size: 32, Unique: true},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"pending", "confirmed", "completed", "cancelled"}, Default: "pending"},
		{Name: "locale", Type: field.TypeString, Size: 16, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	BookingsTable = &schema.Table{
		Name:       "bookings",
		Columns:    BookingsColumns,
		PrimaryKey: []*schema.Column{BookingsColumns[0]},
		Indexes: []*schema.Index{
			{
				// One active booking per slot. Cancelled rows keep their history
				// without blocking the slot.
				Name:       "bookings_doctor_slot",
				Unique:     true,
				Columns:    []*schema.Column{BookingsColumns[1], BookingsColumns[6], BookingsColumns[7]},
				Annotation: &entsql.IndexAnnotation{Where: ActiveBookingPredicate},
			},
			{Name: "bookings_patient_id", Columns: []*schema.Column{BookingsColumns[2]}},
		},
	}

	ChatsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "doctor_id", Type: field.TypeUUID},
		{Name: "patient_id", Type: field.TypeUUID},
		{Name: "doctor_name", Type: field.TypeString, Size: 200},
		{Name: "patient_name", Type: field.TypeString, Size: 200},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"pending", "accepted", "rejected"}, Default: "pending"},
		{Name: "last_message", Type: field.TypeString, SchemaType: textType},
		{Name: "last_message_time", Type: field.TypeTime},
		{Name: "unread_doctor", Type: field.TypeInt, Default: 0},
		{Name: "unread_patient", Type: field.TypeInt, Default: 0},
		{Name: "hidden_for_doctor", Type: field.TypeBool, Default: false},
		{Name: "hidden_for_patient", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	ChatsTable = &schema.Table{
		Name:       "chats",
		Columns:    ChatsColumns,
		PrimaryKey: []*schema.Column{ChatsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "chats_doctor_patient", Unique: true, Columns: []*schema.Column{ChatsColumns[1], ChatsColumns[2]}},
			{Name: "chats_patient_id", Columns: []*schema.Column{ChatsColumns[2]}},
		},
	}

	ChatMessagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "chat_id", Type: field.TypeUUID},
		{Name: "sender_id", Type: field.TypeUUID},
		{Name: "sender_role", Type: field.TypeEnum, Enums: []string{"doctor", "patient"}},
		{Name: "sender_name", Type: field.TypeString, Size: 200},
		{Name: "text", Type: field.TypeString, SchemaType: textType},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "read", Type: field.TypeBool, Default: false},
	}
	ChatMessagesTable = &schema.Table{
		Name:       "chat_messages",
		Columns:    ChatMessagesColumns,
		PrimaryKey: []*schema.Column{ChatMessagesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "chat_messages_chats_messages",
				Columns:    []*schema.Column{ChatMessagesColumns[1]},
				RefColumns: []*schema.Column{ChatsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "chat_messages_chat_created", Columns: []*schema.Column{ChatMessagesColumns[1], ChatMessagesColumns[6]}},
		},
	}

	Tables = []*schema.Table{
		DoctorsTable,
		BookingsTable,
		ChatsTable,
		ChatMessagesTable,
	}
)

// ActiveBookingPredicate is the partial index predicate for bookings that
// hold their slot. Inserts use it as the ON CONFLICT inference clause.
const ActiveBookingPredicate = "status <> 'cancelled'"

func init() {
	ChatMessagesTable.ForeignKeys[0].RefTable = ChatsTable
}

// Create applies the schema. Drops are disabled so a newer binary never
// removes data written by an older one.
func Create(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithDropColumn(false), schema.WithDropIndex(false))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
