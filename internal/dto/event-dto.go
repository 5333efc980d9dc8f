package dto

import "time"

type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Capacity    *int   `json:"capacity"`
	Points      *int   `json:"points"`
}

type UpdateEventRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Capacity    *int    `json:"capacity"`
	Points      *int    `json:"points"`
	Published   *bool   `json:"published"`
}

type EventFilter struct {
	Name      string `query:"name"`
	Location  string `query:"location"`
	Started   *bool  `query:"started"`
	Ended     *bool  `query:"ended"`
	ShowFull  *bool  `query:"showFull"`
	Published *bool  `query:"published"`
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

type MemberRef struct {
	ID     uint   `json:"id"`
	Utorid string `json:"utorid"`
	Name   string `json:"name"`
}

// EventResponse is the manager/organizer view; the regular view omits the
// budget split, publication flag and guest list (NumGuests only).
type EventResponse struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Location      string      `json:"location"`
	StartTime     time.Time   `json:"startTime"`
	EndTime       time.Time   `json:"endTime"`
	Capacity      *int        `json:"capacity"`
	PointsRemain  *int        `json:"pointsRemain,omitempty"`
	PointsAwarded *int        `json:"pointsAwarded,omitempty"`
	Published     *bool       `json:"published,omitempty"`
	Organizers    []MemberRef `json:"organizers,omitempty"`
	Guests        []MemberRef `json:"guests,omitempty"`
	NumGuests     int         `json:"numGuests"`
}

type EventListResponse struct {
	Count   int64           `json:"count"`
	Results []EventResponse `json:"results"`
}

type OrganizerListResponse struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	Location   string      `json:"location"`
	Organizers []MemberRef `json:"organizers"`
}

type GuestAddedResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	GuestAdded MemberRef `json:"guestAdded"`
	NumGuests  int       `json:"numGuests"`
}

// AwardPointsRequest distributes event budget: with Utorid set the award
// is targeted at one guest, otherwise it is broadcast to every guest.
type AwardPointsRequest struct {
	Type   string  `json:"type"` // must be "event"
	Utorid *string `json:"utorid"`
	Amount int     `json:"amount"`
	Remark string  `json:"remark"`
}

type AwardResult struct {
	ID        uint   `json:"id"`
	Recipient string `json:"recipient"`
	Awarded   int    `json:"awarded"`
	Type      string `json:"type"`
	RelatedID uint   `json:"relatedId"`
	Remark    string `json:"remark"`
	CreatedBy string `json:"createdBy"`
}
