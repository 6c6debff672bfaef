package models

import "time"

// GuestMessage is a well-wish left by a guest on a published invitation.
// Messages are never edited; they go away only with their invitation.
type GuestMessage struct {
	ID           string    `db:"id" json:"id"`
	InvitationID string    `db:"invitation_id" json:"invitation_id"`
	GuestName    string    `db:"guest_name" json:"guest_name"`
	GuestEmail   *string   `db:"guest_email" json:"guest_email"`
	Message      string    `db:"message" json:"message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RSVPStatus represents the attendance confirmation status
type RSVPStatus string

const (
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
	RSVPMaybe    RSVPStatus = "maybe"
)

// Valid reports whether s is one of the known statuses.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPAccepted, RSVPDeclined, RSVPMaybe:
		return true
	}
	return false
}

// RSVPResponse is a guest's attendance answer for one invitation.
type RSVPResponse struct {
	ID               string     `db:"id" json:"id"`
	InvitationID     string     `db:"invitation_id" json:"invitation_id"`
	GuestName        string     `db:"guest_name" json:"guest_name"`
	AttendanceStatus RSVPStatus `db:"attendance_status" json:"attendance_status"`
	GuestEmail       *string    `db:"guest_email" json:"guest_email"`
	GuestPhone       *string    `db:"guest_phone" json:"guest_phone"`
	Message          *string    `db:"message" json:"message"`
	NumberOfGuests   *int       `db:"number_of_guests" json:"number_of_guests"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// RSVPSummary aggregates the responses of one invitation.
type RSVPSummary struct {
	Accepted       int `json:"accepted"`
	Declined       int `json:"declined"`
	Maybe          int `json:"maybe"`
	ExpectedGuests int `json:"expected_guests"`
}

// Summarize counts responses by status. Accepted responses without a party
// size count as one guest.
func Summarize(responses []RSVPResponse) RSVPSummary {
	var s RSVPSummary
	for _, r := range responses {
		switch r.AttendanceStatus {
		case RSVPAccepted:
			s.Accepted++
			if r.NumberOfGuests != nil && *r.NumberOfGuests > 0 {
				s.ExpectedGuests += *r.NumberOfGuests
			} else {
				s.ExpectedGuests++
			}
		case RSVPDeclined:
			s.Declined++
		case RSVPMaybe:
			s.Maybe++
		}
	}
	return s
}

// Share records that an invitation link was sent to a phone number, so that
// replies from that number can be attributed to the invitation.
type Share struct {
	ID           string    `db:"id" json:"id"`
	InvitationID string    `db:"invitation_id" json:"invitation_id"`
	GuestName    string    `db:"guest_name" json:"guest_name"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
