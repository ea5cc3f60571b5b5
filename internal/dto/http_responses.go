package dto

import (
	"github.com/wb-go/wbf/ginext"

	"eventboard/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound = "EVENT_NOT_FOUND"
	UserDuplicate = "USER_DUPLICATE"
	Unauthorized  = "UNAUTHORIZED"
	Forbidden     = "FORBIDDEN"
)

// EventDateLayout is the wire format for event dates. Dates are day-precision
// and carry no timezone, so they round-trip without drift.
const EventDateLayout = "2006-01-02"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateEventRequest struct {
	Name         string  `validate:"required,max=100"`
	Category     string  `validate:"required,max=50"`
	Latitude     float64 `validate:"latitude"`
	Longitude    float64 `validate:"longitude"`
	LocationName string  `validate:"max=200"`
	EventDate    string  `validate:"required,eventdate"`
	Description  string
	IsPrivate    bool
}

type UpdateEventRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description"`
	EventDate   *string `json:"event_date" validate:"omitempty,eventdate"`
	IsPrivate   *bool   `json:"is_private"`
}

type EventResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"location_name"`
	Description  string  `json:"description,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	EventDate    string  `json:"event_date"`
	IsPrivate    bool    `json:"is_private"`
	Author       string  `json:"author"`
	IsOwner      bool    `json:"is_owner"`
}

type EventListResponse struct {
	Events      []EventResponse `json:"events"`
	Total       int             `json:"total"`
	Pages       int             `json:"pages"`
	CurrentPage int             `json:"current_page"`
}

type GeocodeResponse struct {
	Candidates []model.Candidate `json:"candidates"`
}

// NewEventResponse maps a joined event row to its wire form. Poster paths are
// stored as bare file names and exposed under the /uploads static route.
func NewEventResponse(e *model.Event, viewerID int64) EventResponse {
	poster := ""
	if e.PosterPath != "" {
		poster = "uploads/" + e.PosterPath
	}
	return EventResponse{
		ID:           e.ID,
		Name:         e.Name,
		Category:     e.Category,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		LocationName: e.LocationName,
		Description:  e.Description,
		PosterPath:   poster,
		EventDate:    e.EventDate.Format(EventDateLayout),
		IsPrivate:    e.IsPrivate,
		Author:       e.Author,
		IsOwner:      viewerID != 0 && e.UserID == viewerID,
	}
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: "Authentication required",
		},
	})
}

func ForbiddenError(c *ginext.Context) {
	c.JSON(403, Response{
		Status: "error",
		Error: &Error{
			Code: Forbidden,
			Desc: "Unauthorized",
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: EventNotFound,
			Desc: "Event not found",
		},
	})
}

func UserDuplicateError(c *ginext.Context) {
	BadResponseError(c, UserDuplicate, "Email or username already registered")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
