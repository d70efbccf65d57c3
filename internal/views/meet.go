package views

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/refresh"
)

const (
	firstSlotHour = 7
	slotCount     = 33
	nightHour     = 18
	nightMinute   = 30
	bookingDays   = 7

	meetingTitle            = "One-on-One Session"
	meetingDescription      = "Initial project consultation"
	nightMeetingDescription = "Night service requested - Initial project consultation"
)

var (
	// ErrOutsideWindow is returned when a day falls outside the booking window.
	ErrOutsideWindow = errors.New("selected date is outside your booking window")
	// ErrUnknownSlot is returned for a time that is not one of TimeSlots.
	ErrUnknownSlot = errors.New("unknown time slot")
)

// TimeSlots returns the bookable half-hour slots, 07:00 through 23:00.
func TimeSlots() []string {
	slots := make([]string, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		slots = append(slots, fmt.Sprintf("%02d:%02d", firstSlotHour+i/2, (i%2)*30))
	}
	return slots
}

// Window is the range of days a student may book, both ends inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// BookingWindow starts at the local midnight of the account creation day and
// ends seven days later.
func BookingWindow(createdAt time.Time, loc *time.Location) Window {
	created := createdAt.In(loc)
	start := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, bookingDays)}
}

// Contains reports whether day lies within the window, boundaries included.
func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// MeetingTime composes the meeting instant in loc from a calendar day and a
// slot. Night requests, and requests without a slot, use 18:30.
func MeetingTime(day time.Time, slot string, night bool, loc *time.Location) (time.Time, error) {
	day = day.In(loc)
	hour, minute := nightHour, nightMinute
	if !night && slot != "" {
		if !validSlot(slot) {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
		}
		if _, err := fmt.Sscanf(slot, "%d:%d", &hour, &minute); err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func validSlot(slot string) bool {
	for _, s := range TimeSlots() {
		if s == slot {
			return true
		}
	}
	return false
}

// MeetPage is the guarded booking view.
type MeetPage struct {
	page
	User     models.User
	Meetings []models.Meeting
}

// OpenMeet guards and loads the booking view.
func (e *Env) OpenMeet(ctx context.Context) *MeetPage {
	p := &MeetPage{page: e.newPage(ctx, "meet", auth.ScopeUser)}
	p.open("Failed to load meetings", func(ctx context.Context) error {
		user, err := e.API.Me(ctx, auth.ScopeUser)
		if err != nil {
			return err
		}
		p.view.Apply(func() { p.User = user })
		return p.loadMeetings(ctx)
	})
	return p
}

func (p *MeetPage) loadMeetings(ctx context.Context) error {
	meetings, err := p.env.API.MyMeetings(ctx)
	if err != nil {
		return err
	}
	p.view.Apply(func() { p.Meetings = meetings })
	return nil
}

// Window returns the student's booking window.
func (p *MeetPage) Window() Window {
	return BookingWindow(p.User.CreatedAt, p.env.location())
}

// Book requests a session on day at slot, or a night session, then reloads the
// meeting list.
func (p *MeetPage) Book(day time.Time, slot string, night bool) refresh.Outcome {
	loc := p.env.location()
	dayStart := day.In(loc)
	dayStart = time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), 0, 0, 0, 0, loc)

	description := meetingDescription
	if night {
		description = nightMeetingDescription
	}

	return p.mutate(refresh.Mutation{
		Name: "book meeting",
		Do: func(ctx context.Context) error {
			if !p.Window().Contains(dayStart) {
				return ErrOutsideWindow
			}
			at, err := MeetingTime(dayStart, slot, night, loc)
			if err != nil {
				return err
			}
			_, err = p.env.API.BookMeeting(ctx, api.MeetingRequest{
				Title:       meetingTitle,
				Description: description,
				MeetingDate: at,
			})
			return err
		},
		Success: "Meeting booked successfully!",
		Failure: "Failed to book meeting",
		Refresh: []refresh.Refresher{{Name: "meetings", Fetch: p.loadMeetings}},
	})
}

// Delete removes one of the student's meetings, then reloads the list.
func (p *MeetPage) Delete(meetingID string) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "delete meeting",
		Do: func(ctx context.Context) error {
			return p.env.API.DeleteMeeting(ctx, auth.ScopeUser, meetingID)
		},
		Success: "Meeting deleted successfully!",
		Failure: "Failed to delete meeting",
		Refresh: []refresh.Refresher{{Name: "meetings", Fetch: p.loadMeetings}},
	})
}
