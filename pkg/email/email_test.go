package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

func sampleBooking(locale string) BookingEmailData {
	return BookingEmailData{
		PatientName:   "Sara <b>",
		Email:         "sara@example.com",
		DoctorName:    "Dr. Rahimi",
		BookingNumber: "BK-7KQ2MZ4P",
		Date:          "2030-01-14",
		Time:          "10:00",
		Locale:        locale,
	}
}

func TestBuildBookingConfirmationEmail_English(t *testing.T) {
	m := BuildBookingConfirmationEmail(sampleBooking("en-US"))

	assert.Equal(t, []string{"sara@example.com"}, m.To)
	assert.Contains(t, m.Subject, "BK-7KQ2MZ4P")
	assert.Contains(t, m.Subject, defaultAppName)
	assert.Contains(t, m.TextBody, "Dr. Rahimi on 2030-01-14 at 10:00")
	assert.Contains(t, m.HTMLBody, `dir="ltr"`)
	assert.Contains(t, m.HTMLBody, "Sara &lt;b&gt;")
	assert.NotContains(t, m.HTMLBody, "Sara <b>")
}

func TestBuildBookingConfirmationEmail_DefaultsToPersian(t *testing.T) {
	for _, locale := range []string{"", "fa", "fa-IR", "de"} {
		m := BuildBookingConfirmationEmail(sampleBooking(locale))
		assert.Contains(t, m.HTMLBody, `dir="rtl"`, locale)
		assert.Contains(t, m.TextBody, "شماره نوبت", locale)
	}
}

func TestBuildBookingCancellationEmail(t *testing.T) {
	en := BuildBookingCancellationEmail(sampleBooking("en"))
	assert.Contains(t, en.Subject, "cancelled")
	assert.Contains(t, en.TextBody, "BK-7KQ2MZ4P")

	fa := BuildBookingCancellationEmail(sampleBooking("fa"))
	assert.Contains(t, fa.Subject, "لغو")

	data := sampleBooking("en")
	data.AppName = "Clinic"
	assert.True(t, strings.HasPrefix(BuildBookingCancellationEmail(data).Subject, "Your Clinic booking"))
}

func TestBuildMessage_Validation(t *testing.T) {
	to := []string{"a@example.com"}
	for name, tc := range map[string]struct {
		from string
		msg  Message
	}{
		"no sender":     {"", Message{To: to, Subject: "s", TextBody: "b"}},
		"no recipients": {"from@example.com", Message{To: []string{" "}, Subject: "s", TextBody: "b"}},
		"no subject":    {"from@example.com", Message{To: to, TextBody: "b"}},
		"no body":       {"from@example.com", Message{To: to, Subject: "s"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := buildMessage(tc.from, tc.msg)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	msg, err := buildMessage("from@example.com", Message{
		To:       []string{" a@example.com ", ""},
		Subject:  "s",
		TextBody: "b",
		HTMLBody: "<p>b</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, msg.GetHeader("To"))
}

func TestSend_Disabled(t *testing.T) {
	c, err := NewFromCentral(config.EmailConfig{Enabled: false, AppName: "Clinic"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.Equal(t, "Clinic", c.AppName())

	err = c.Send(context.Background(), BuildBookingConfirmationEmail(sampleBooking("en")))
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestNew_RequiresHostWhenEnabled(t *testing.T) {
	_, err := New(Config{Enabled: true})
	assert.Error(t, err)
}

func TestSMTPTimeout(t *testing.T) {
	assert.Equal(t, DefaultConfig().SMTPTimeout().Seconds(), float64(30))
	assert.Equal(t, Config{SMTPTimeoutSeconds: 5}.SMTPTimeout().Seconds(), float64(5))
}

func TestFromCentralConfigDefaults(t *testing.T) {
	c := FromCentralConfig(config.EmailConfig{})
	assert.Equal(t, 587, c.SMTPPort)
	assert.Equal(t, defaultAppName, c.AppName)

	c = FromCentralConfig(config.EmailConfig{AppName: "Clinic", SMTP: config.SMTPConfig{Port: 465}})
	assert.Equal(t, 465, c.SMTPPort)
	assert.Equal(t, "Clinic", c.AppName)
}
