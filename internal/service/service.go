package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventboard/cmd/middleware"
	"eventboard/internal/auth"
	"eventboard/internal/dto"
	"eventboard/internal/media"
	"eventboard/internal/model"
	"eventboard/internal/repo"
	"eventboard/pkg/validator"
)

type Service interface {
	Register(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	ListEvents(ctx *ginext.Context)
	Geocode(ctx *ginext.Context)
}

// Publisher enqueues background work without waiting for completion.
type Publisher interface {
	Publish(message []byte) error
}

// Geocoder resolves a free-form location query into candidates.
type Geocoder interface {
	Resolve(ctx context.Context, query string) ([]model.Candidate, error)
}

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

type service struct {
	repo      repo.Repository
	log       *zerolog.Logger
	publisher Publisher
	geocoder  Geocoder
	tokens    *auth.JWTManager
	uploadDir string
}

func NewService(
	repository repo.Repository,
	logger *zerolog.Logger,
	publisher Publisher,
	geocoder Geocoder,
	tokens *auth.JWTManager,
	uploadDir string,
) Service {
	return &service{
		repo:      repository,
		log:       logger,
		publisher: publisher,
		geocoder:  geocoder,
		tokens:    tokens,
		uploadDir: uploadDir,
	}
}

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateUser) {
			dto.UserDuplicateError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to create user in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", id).Msg("user registered")
	dto.SuccessCreatedResponse(ctx, dto.UserResponse{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
	})
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			dto.UnauthorizedError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to load user for login")
		dto.InternalServerError(ctx)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		dto.UnauthorizedError(ctx)
		return
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue token")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	dto.SuccessResponse(ctx, dto.LoginResponse{Token: token})
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	userID := middleware.UserID(ctx)

	latitude, latErr := strconv.ParseFloat(ctx.PostForm("latitude"), 64)
	longitude, lonErr := strconv.ParseFloat(ctx.PostForm("longitude"), 64)
	if latErr != nil || lonErr != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "latitude and longitude must be decimal degrees")
		return
	}

	req := dto.CreateEventRequest{
		Name:         ctx.PostForm("event_name"),
		Category:     ctx.PostForm("event_category"),
		Latitude:     latitude,
		Longitude:    longitude,
		LocationName: ctx.PostForm("location_name"),
		EventDate:    ctx.PostForm("event_date"),
		Description:  ctx.PostForm("description"),
		IsPrivate:    ctx.PostForm("is_private") == "true",
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	eventDate, err := time.Parse(dto.EventDateLayout, req.EventDate)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "event_date must be formatted as "+dto.EventDateLayout)
		return
	}

	posterName, sourcePath, err := s.savePoster(ctx)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, err.Error())
		return
	}

	event := &model.Event{
		Name:         req.Name,
		Category:     req.Category,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
		Description:  req.Description,
		PosterPath:   posterName,
		EventDate:    eventDate,
		IsPrivate:    req.IsPrivate,
		UserID:       userID,
	}

	id, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}
	event.ID = id
	s.log.Info().Int64("event_id", id).Msg("event created")

	if sourcePath != "" {
		s.enqueueMediaJob(id, sourcePath)
	}

	event.Author = s.authorName(ctx, userID)
	dto.SuccessCreatedResponse(ctx, dto.NewEventResponse(event, userID))
}

// savePoster stores an optional uploaded poster under the upload root with a
// collision-proof name. It returns the stored file name and its on-disk path,
// both empty when no poster was sent.
func (s *service) savePoster(ctx *ginext.Context) (string, string, error) {
	header, err := ctx.FormFile("poster")
	if err != nil {
		// multipart forms without a poster part are fine
		return "", "", nil
	}

	if !allowedFile(header.Filename) {
		return "", "", fmt.Errorf("poster file type is not allowed")
	}

	name := uuid.New().String() + "_" + sanitizeFilename(header.Filename)
	dst := filepath.Join(s.uploadDir, name)
	if err := ctx.SaveUploadedFile(header, dst); err != nil {
		return "", "", fmt.Errorf("failed to store poster: %w", err)
	}
	return name, dst, nil
}

// enqueueMediaJob hands thumbnail work to the background queue. The event row
// is already committed, so a publish failure degrades to a missing thumbnail
// and is only logged.
func (s *service) enqueueMediaJob(eventID int64, sourcePath string) {
	payload, err := json.Marshal(model.MediaJobMessage{
		EventID:    eventID,
		SourcePath: sourcePath,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to marshal media job")
		return
	}
	if err := s.publisher.Publish(payload); err != nil {
		s.log.Error().Err(err).Int64("event_id", eventID).Msg("failed to enqueue media job, thumbnail will be missing")
	}
}

func (s *service) GetEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}
	viewerID := middleware.UserID(ctx)

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get event")
		dto.InternalServerError(ctx)
		return
	}

	// hidden events are indistinguishable from missing ones
	if event.IsPrivate && event.UserID != viewerID {
		dto.EventNotFoundError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.NewEventResponse(event, viewerID))
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	userID := middleware.UserID(ctx)

	event, ok := s.ownedEvent(ctx, userID)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.IsPrivate != nil {
		event.IsPrivate = *req.IsPrivate
	}
	if req.EventDate != nil {
		date, err := time.Parse(dto.EventDateLayout, *req.EventDate)
		if err != nil {
			dto.BadResponseError(ctx, dto.FieldBadFormat, "event_date must be formatted as "+dto.EventDateLayout)
			return
		}
		event.EventDate = date
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, repo.ErrNotOwner) {
			dto.ForbiddenError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", event.ID).Msg("event updated")
	dto.SuccessResponse(ctx, dto.NewEventResponse(event, userID))
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	userID := middleware.UserID(ctx)

	event, ok := s.ownedEvent(ctx, userID)
	if !ok {
		return
	}

	if err := s.repo.DeleteEvent(ctx, event.ID, userID); err != nil {
		if errors.Is(err, repo.ErrNotOwner) {
			dto.ForbiddenError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}

	s.removePosterArtifacts(event)

	s.log.Info().Int64("event_id", event.ID).Msg("event deleted")
	dto.SuccessResponse(ctx, map[string]string{"message": "Event deleted successfully"})
}

// ownedEvent loads the event addressed by the :id parameter and enforces the
// ownership rule shared by every mutation: unknown id is 404, someone else's
// event is 403.
func (s *service) ownedEvent(ctx *ginext.Context, userID int64) (*model.Event, bool) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return nil, false
	}

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return nil, false
		}
		s.log.Error().Err(err).Msg("failed to get event")
		dto.InternalServerError(ctx)
		return nil, false
	}

	if event.UserID != userID {
		dto.ForbiddenError(ctx)
		return nil, false
	}
	return event, true
}

// removePosterArtifacts is best-effort cleanup: a leftover file never blocks
// record deletion.
func (s *service) removePosterArtifacts(event *model.Event) {
	if event.PosterPath == "" {
		return
	}
	posterPath := filepath.Join(s.uploadDir, event.PosterPath)
	for _, path := range []string{posterPath, media.ThumbPath(posterPath)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to remove poster artifact")
		}
	}
}

func (s *service) ListEvents(ctx *ginext.Context) {
	viewerID := middleware.UserID(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(ctx.DefaultQuery("per_page", strconv.Itoa(repo.DefaultPerPage)))

	filter := repo.EventFilter{
		Category: ctx.Query("category"),
		Search:   ctx.Query("search"),
		ViewerID: viewerID,
		Page:     page,
		PerPage:  perPage,
	}.Normalize()

	events, total, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, dto.NewEventResponse(&events[i], viewerID))
	}

	dto.SuccessResponse(ctx, dto.EventListResponse{
		Events:      items,
		Total:       total,
		Pages:       repo.PageCount(total, filter.PerPage),
		CurrentPage: filter.Page,
	})
}

func (s *service) Geocode(ctx *ginext.Context) {
	query := ctx.Query("query")
	if strings.TrimSpace(query) == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "query parameter is required")
		return
	}

	candidates, err := s.geocoder.Resolve(ctx, query)
	if err != nil {
		// degraded response: the provider being down never fails the request
		dto.SuccessResponse(ctx, dto.GeocodeResponse{Candidates: []model.Candidate{}})
		return
	}

	dto.SuccessResponse(ctx, dto.GeocodeResponse{Candidates: candidates})
}

func (s *service) authorName(ctx *ginext.Context, userID int64) string {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to load author name")
		return ""
	}
	return user.Username
}

func allowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// sanitizeFilename strips path components and characters that do not belong
// in an on-disk name.
func sanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
