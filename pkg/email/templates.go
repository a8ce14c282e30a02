package email

import (
	"fmt"
	"html"

	"golang.org/x/text/language"
)

const defaultAppName = "Teleclinic"

// BookingEmailData contains the data needed for booking email templates.
type BookingEmailData struct {
	PatientName   string
	Email         string
	DoctorName    string
	BookingNumber string
	Date          string
	Time          string
	// Locale is a BCP 47 tag. Anything that does not match English gets Persian.
	Locale  string
	AppName string
}

var localeMatcher = language.NewMatcher([]language.Tag{language.Persian, language.English})

func isEnglish(locale string) bool {
	tag, _ := language.MatchStrings(localeMatcher, locale)
	base, _ := tag.Base()
	return base.String() == "en"
}

func (d BookingEmailData) appName() string {
	if d.AppName == "" {
		return defaultAppName
	}
	return d.AppName
}

// BuildBookingConfirmationEmail creates the message sent after a booking is recorded.
func BuildBookingConfirmationEmail(data BookingEmailData) Message {
	appName := data.appName()
	if isEnglish(data.Locale) {
		subject := fmt.Sprintf("Your %s booking %s", appName, data.BookingNumber)
		text := fmt.Sprintf(`Hi %s,

Your appointment with %s on %s at %s has been booked.
Booking number: %s

Thanks,
The %s Team`,
			data.PatientName, data.DoctorName, data.Date, data.Time, data.BookingNumber, appName)
		body := fmt.Sprintf(`<p>Hi %s,</p>
    <p>Your appointment with <strong>%s</strong> on <strong>%s</strong> at <strong>%s</strong> has been booked.</p>
    <p>Booking number:</p>
    <p style="background-color: #f3f4f6; padding: 10px 15px; border-radius: 4px; font-family: monospace; font-size: 16px;">%s</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>The %s Team</p>`,
			esc(data.PatientName), esc(data.DoctorName), esc(data.Date), esc(data.Time), esc(data.BookingNumber), esc(appName))
		return bookingMessage(data.Email, subject, text, wrapHTML("ltr", body))
	}

	subject := fmt.Sprintf("نوبت شما در %s ثبت شد (%s)", appName, data.BookingNumber)
	text := fmt.Sprintf(`%s عزیز،

نوبت شما با %s در تاریخ %s ساعت %s ثبت شد.
شماره نوبت: %s

با سپاس،
تیم %s`,
		data.PatientName, data.DoctorName, data.Date, data.Time, data.BookingNumber, appName)
	body := fmt.Sprintf(`<p>%s عزیز،</p>
    <p>نوبت شما با <strong>%s</strong> در تاریخ <strong>%s</strong> ساعت <strong>%s</strong> ثبت شد.</p>
    <p>شماره نوبت:</p>
    <p style="background-color: #f3f4f6; padding: 10px 15px; border-radius: 4px; font-family: monospace; font-size: 16px;" dir="ltr">%s</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">با سپاس،<br>تیم %s</p>`,
		esc(data.PatientName), esc(data.DoctorName), esc(data.Date), esc(data.Time), esc(data.BookingNumber), esc(appName))
	return bookingMessage(data.Email, subject, text, wrapHTML("rtl", body))
}

// BuildBookingCancellationEmail creates the message sent when a booking is cancelled.
func BuildBookingCancellationEmail(data BookingEmailData) Message {
	appName := data.appName()
	if isEnglish(data.Locale) {
		subject := fmt.Sprintf("Your %s booking %s was cancelled", appName, data.BookingNumber)
		text := fmt.Sprintf(`Hi %s,

Your appointment with %s on %s at %s (booking %s) has been cancelled.

Thanks,
The %s Team`,
			data.PatientName, data.DoctorName, data.Date, data.Time, data.BookingNumber, appName)
		body := fmt.Sprintf(`<p>Hi %s,</p>
    <p>Your appointment with <strong>%s</strong> on <strong>%s</strong> at <strong>%s</strong> (booking %s) has been cancelled.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>The %s Team</p>`,
			esc(data.PatientName), esc(data.DoctorName), esc(data.Date), esc(data.Time), esc(data.BookingNumber), esc(appName))
		return bookingMessage(data.Email, subject, text, wrapHTML("ltr", body))
	}

	subject := fmt.Sprintf("نوبت %s لغو شد", data.BookingNumber)
	text := fmt.Sprintf(`%s عزیز،

نوبت شما با %s در تاریخ %s ساعت %s (شماره %s) لغو شد.

با سپاس،
تیم %s`,
		data.PatientName, data.DoctorName, data.Date, data.Time, data.BookingNumber, appName)
	body := fmt.Sprintf(`<p>%s عزیز،</p>
    <p>نوبت شما با <strong>%s</strong> در تاریخ <strong>%s</strong> ساعت <strong>%s</strong> (شماره <span dir="ltr">%s</span>) لغو شد.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">با سپاس،<br>تیم %s</p>`,
		esc(data.PatientName), esc(data.DoctorName), esc(data.Date), esc(data.Time), esc(data.BookingNumber), esc(appName))
	return bookingMessage(data.Email, subject, text, wrapHTML("rtl", body))
}

func esc(s string) string { return html.EscapeString(s) }

func bookingMessage(to, subject, text, htmlBody string) Message {
	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

func wrapHTML(dir, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html dir="%s">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    %s
</body>
</html>`, dir, body)
}
