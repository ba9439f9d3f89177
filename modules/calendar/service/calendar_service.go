package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smart-planner/core/cache"
	"smart-planner/core/constants"
	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/core/utils"
	"smart-planner/modules/calendar/dto"
	"smart-planner/modules/calendar/entity"
	"smart-planner/modules/calendar/repository"
	plannerService "smart-planner/modules/planner/service"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/calendar",
}

type CalendarService interface {
	GetConnectURL(ctx context.Context, userID uuid.UUID) (*dto.OAuthURLResponse, *errors.AppError)
	HandleCallback(ctx context.Context, state, code string) (*dto.CalendarConnectionResponse, *errors.AppError)
	GetConnections(ctx context.Context, userID uuid.UUID) (*dto.CalendarConnectionListResponse, *errors.AppError)
	DisconnectCalendar(ctx context.Context, userID uuid.UUID, provider string) *errors.AppError
	ConnectedStore(ctx context.Context, userID uuid.UUID) (plannerService.EventStore, bool, error)
}

// Config holds the Google OAuth client plus the endpoints, which tests point
// at a local server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	APIBaseURL   string
	Location     *time.Location
	Timeout      time.Duration
	LookBehind   time.Duration
	LookAhead    time.Duration
}

func (c Config) withDefaults() Config {
	if c.AuthURL == "" {
		c.AuthURL = googleAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = googleTokenURL
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = googleUserInfoURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = googleCalendarAPIBase
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.LookBehind <= 0 {
		c.LookBehind = 30 * 24 * time.Hour
	}
	if c.LookAhead <= 0 {
		c.LookAhead = 90 * 24 * time.Hour
	}
	return c
}

type calendarService struct {
	repo  repository.CalendarRepository
	cache cache.Cache
	cfg   Config
	oauth *oauth2.Config
}

func NewCalendarService(repo repository.CalendarRepository, c cache.Cache, cfg Config) CalendarService {
	cfg = cfg.withDefaults()
	return &calendarService{
		repo:  repo,
		cache: c,
		cfg:   cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       googleScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (s *calendarService) configured() bool {
	return s.cfg.ClientID != "" && s.cfg.ClientSecret != ""
}

// GetConnectURL starts the Google OAuth flow. The state maps back to the user
// for OAuthStateTTL.
func (s *calendarService) GetConnectURL(ctx context.Context, userID uuid.UUID) (*dto.OAuthURLResponse, *errors.AppError) {
	if !s.configured() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Google Calendar is not configured", nil)
	}

	state := utils.GenerateRandomString(32)
	if err := s.cache.Set(ctx, constants.RedisKeyOAuthState+state, userID.String(), constants.OAuthStateTTL); err != nil {
		logger.Error("CalendarService:GetConnectURL:SaveState", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save state", err)
	}

	return &dto.OAuthURLResponse{
		URL:   s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce),
		State: state,
	}, nil
}

// HandleCallback exchanges the code and stores the connection. A state is
// good for one callback.
func (s *calendarService) HandleCallback(ctx context.Context, state, code string) (*dto.CalendarConnectionResponse, *errors.AppError) {
	if state == "" || code == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "state and code are required", nil)
	}

	key := constants.RedisKeyOAuthState + state
	var raw string
	found, err := s.cache.Get(ctx, key, &raw)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to read state", err)
	}
	if !found {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid or expired state", nil)
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Warn("CalendarService:HandleCallback:DeleteState", "error", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid or expired state", err)
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Error("CalendarService:HandleCallback:Exchange", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrTransport, "Failed to exchange authorization code", err)
	}

	email, err := s.fetchEmail(ctx, tok)
	if err != nil {
		logger.Error("CalendarService:HandleCallback:UserInfo", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrTransport, "Failed to read Google account", err)
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		// google omits the refresh token on re-consent without prompt
		if existing, _ := s.repo.GetActiveConnection(ctx, userID, dto.ProviderGoogle); existing != nil {
			refresh = existing.RefreshToken
		}
	}
	conn := &entity.CalendarConnection{
		UserID:        userID,
		Provider:      dto.ProviderGoogle,
		ProviderEmail: email,
		AccessToken:   tok.AccessToken,
		RefreshToken:  refresh,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		conn.TokenExpiresAt = &expiry
	}
	if err := s.repo.SaveConnection(ctx, conn); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to save calendar connection", err)
	}

	logger.Info("CalendarService:HandleCallback:Connected", "user_id", userID, "email", email)
	resp := toConnectionResponse(*conn)
	return &resp, nil
}

func (s *calendarService) fetchEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	client := s.oauth.Client(ctx, tok)
	client.Timeout = s.cfg.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UserInfoURL, nil)
	if err != nil {
		return "", err
	}
	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned %d", res.StatusCode)
	}

	var info dto.GoogleUserInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Email, nil
}

func (s *calendarService) GetConnections(ctx context.Context, userID uuid.UUID) (*dto.CalendarConnectionListResponse, *errors.AppError) {
	connections, err := s.repo.GetConnectionsByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get connections", err)
	}

	result := make([]dto.CalendarConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		result = append(result, toConnectionResponse(conn))
	}
	return &dto.CalendarConnectionListResponse{Connections: result}, nil
}

func (s *calendarService) DisconnectCalendar(ctx context.Context, userID uuid.UUID, provider string) *errors.AppError {
	if provider != dto.ProviderGoogle {
		return errors.NewAppError(errors.ErrInvalidInput, "Invalid provider", nil)
	}
	found, err := s.repo.DeactivateConnection(ctx, userID, provider)
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "Failed to disconnect", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrNotFound, "Calendar connection not found", nil)
	}
	logger.Info("CalendarService:DisconnectCalendar:Success", "user_id", userID, "provider", provider)
	return nil
}

// ConnectedStore returns the user's Google calendar as an event store. ok is
// false when Google is not configured or the user never connected.
func (s *calendarService) ConnectedStore(ctx context.Context, userID uuid.UUID) (plannerService.EventStore, bool, error) {
	if !s.configured() {
		return nil, false, nil
	}
	conn, err := s.repo.GetActiveConnection(ctx, userID, dto.ProviderGoogle)
	if err != nil {
		return nil, false, err
	}
	if conn == nil {
		return nil, false, nil
	}
	return s.newGoogleStore(ctx, conn), true, nil
}

func toConnectionResponse(conn entity.CalendarConnection) dto.CalendarConnectionResponse {
	return dto.CalendarConnectionResponse{
		ID:            conn.ID.String(),
		Provider:      conn.Provider,
		CalendarEmail: conn.ProviderEmail,
		IsActive:      conn.IsActive,
		ConnectedAt:   conn.CreatedAt.Format(time.RFC3339),
	}
}
