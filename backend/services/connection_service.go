package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

const oauthStateTTL = 10 * time.Minute

// ConnectionService links administrator-owned Gmail and Fitbit accounts.
type ConnectionService struct {
	DB        *gorm.DB
	Box       *utils.SecretBox
	Providers map[string]*oauth2.Config
	Now       func() time.Time
}

func NewConnectionService(db *gorm.DB, cfg *config.Config) (*ConnectionService, error) {
	box, err := utils.NewSecretBox(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	callback := func(provider string) string {
		return strings.TrimRight(cfg.OAuthRedirectBaseURL, "/") + "/api/admin/connections/" + provider + "/callback"
	}

	return &ConnectionService{
		DB:  db,
		Box: box,
		Providers: map[string]*oauth2.Config{
			models.ProviderGmail: {
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  callback(models.ProviderGmail),
				Scopes: []string{
					"https://www.googleapis.com/auth/gmail.send",
					"email",
				},
			},
			models.ProviderFitbit: {
				ClientID:     cfg.FitbitClientID,
				ClientSecret: cfg.FitbitClientSecret,
				Endpoint:     endpoints.Fitbit,
				RedirectURL:  callback(models.ProviderFitbit),
				Scopes:       []string{"activity", "heartrate", "sleep", "profile"},
			},
		},
		Now: time.Now,
	}, nil
}

func (s *ConnectionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *ConnectionService) provider(name string) (*oauth2.Config, error) {
	conf, ok := s.Providers[name]
	if !ok {
		return nil, utils.Missing("Unknown provider %q", name)
	}
	if conf.ClientID == "" {
		return nil, utils.InvalidInput("Provider %q is not configured", name)
	}
	return conf, nil
}

// AuthorizeURL records a fresh state for userID and returns the consent URL.
func (s *ConnectionService) AuthorizeURL(ctx context.Context, provider string, userID uint) (string, error) {
	conf, err := s.provider(provider)
	if err != nil {
		return "", err
	}

	state := models.OAuthState{
		State:     uuid.NewString(),
		Provider:  provider,
		UserID:    userID,
		ExpiresAt: s.now().Add(oauthStateTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&state).Error; err != nil {
		return "", utils.StorageFailure(err, "Failed to start authorization")
	}

	return conf.AuthCodeURL(state.State, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Callback consumes state, exchanges code for tokens and stores them
// encrypted. A state can be used once.
func (s *ConnectionService) Callback(ctx context.Context, provider, state, code string) (*models.OAuthConnection, error) {
	conf, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if state == "" || code == "" {
		return nil, utils.InvalidInput("state and code are required")
	}

	var pending models.OAuthState
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pending, "state = ?", state).Error; err != nil {
			return err
		}
		return tx.Delete(&pending).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotPermitted("Unknown or used authorization state")
	} else if err != nil {
		return nil, utils.StorageFailure(err, "Failed to load authorization state")
	}
	if pending.Provider != provider || s.now().After(pending.ExpiresAt) {
		return nil, utils.NotPermitted("Authorization state expired or does not match %s", provider)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		log.Warn("oauth exchange failed", "provider", provider, "error", err)
		return nil, utils.InvalidInput("Authorization code was rejected by %s", provider)
	}

	conn := models.OAuthConnection{
		Provider:    provider,
		Scopes:      strings.Join(conf.Scopes, " "),
		ConnectedBy: pending.UserID,
	}
	if email, ok := token.Extra("email").(string); ok {
		conn.AccountEmail = email
	}
	if err := s.sealToken(&conn, token); err != nil {
		return nil, err
	}

	columns := []string{
		"account_email", "scopes", "access_token",
		"token_type", "expiry", "connected_by", "updated_at",
	}
	// A re-consent without a refresh token keeps the stored one.
	if len(conn.RefreshToken) > 0 {
		columns = append(columns, "refresh_token")
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&conn).Error
	if err != nil {
		return nil, utils.StorageFailure(err, "Failed to save connection")
	}

	log.Info("oauth connection saved", "provider", provider, "user_id", pending.UserID)
	return s.connection(ctx, provider)
}

func (s *ConnectionService) sealToken(conn *models.OAuthConnection, token *oauth2.Token) error {
	access, err := s.Box.Seal([]byte(token.AccessToken))
	if err != nil {
		return utils.StorageFailure(err, "Failed to encrypt token")
	}
	conn.AccessToken = access
	conn.TokenType = token.TokenType
	conn.Expiry = token.Expiry

	// Providers omit the refresh token on re-consent.
	if token.RefreshToken != "" {
		refresh, err := s.Box.Seal([]byte(token.RefreshToken))
		if err != nil {
			return utils.StorageFailure(err, "Failed to encrypt token")
		}
		conn.RefreshToken = refresh
	}
	return nil
}

func (s *ConnectionService) connection(ctx context.Context, provider string) (*models.OAuthConnection, error) {
	var conn models.OAuthConnection
	if err := s.DB.WithContext(ctx).First(&conn, "provider = ?", provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Missing("No %s connection", provider)
		}
		return nil, utils.StorageFailure(err, "Failed to load connection")
	}
	return &conn, nil
}

// Token returns a valid access token for provider, refreshing and storing it
// when the saved one has expired.
func (s *ConnectionService) Token(ctx context.Context, provider string) (*oauth2.Token, error) {
	conf, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	conn, err := s.connection(ctx, provider)
	if err != nil {
		return nil, err
	}

	access, err := s.Box.Open(conn.AccessToken)
	if err != nil {
		return nil, utils.StorageFailure(err, "Failed to decrypt token")
	}
	saved := &oauth2.Token{
		AccessToken: string(access),
		TokenType:   conn.TokenType,
		Expiry:      conn.Expiry,
	}
	if len(conn.RefreshToken) > 0 {
		refresh, err := s.Box.Open(conn.RefreshToken)
		if err != nil {
			return nil, utils.StorageFailure(err, "Failed to decrypt token")
		}
		saved.RefreshToken = string(refresh)
	}

	token, err := conf.TokenSource(ctx, saved).Token()
	if err != nil {
		log.Warn("oauth refresh failed", "provider", provider, "error", err)
		return nil, utils.Conflict("The %s connection must be re-authorized", provider)
	}
	if token.AccessToken == saved.AccessToken {
		return token, nil
	}

	if err := s.sealToken(conn, token); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"access_token": conn.AccessToken,
		"token_type":   conn.TokenType,
		"expiry":       conn.Expiry,
	}
	if len(conn.RefreshToken) > 0 {
		updates["refresh_token"] = conn.RefreshToken
	}
	if err := s.DB.WithContext(ctx).Model(conn).Updates(updates).Error; err != nil {
		return nil, utils.StorageFailure(err, "Failed to save refreshed token")
	}

	log.Debug("oauth token refreshed", "provider", provider)
	return token, nil
}

// ConnectionStatus reports whether a stored connection can still produce
// an access token.
type ConnectionStatus struct {
	Provider     string    `json:"provider"`
	AccountEmail string    `json:"account_email"`
	Valid        bool      `json:"valid"`
	Expiry       time.Time `json:"expiry"`
	Reason       string    `json:"reason,omitempty"`
}

// Status checks provider's connection, refreshing its token if needed.
// A connection that needs re-authorization is reported, not returned as an error.
func (s *ConnectionService) Status(ctx context.Context, provider string) (*ConnectionStatus, error) {
	conn, err := s.connection(ctx, provider)
	if err != nil {
		return nil, err
	}
	status := &ConnectionStatus{Provider: provider, AccountEmail: conn.AccountEmail}

	token, err := s.Token(ctx, provider)
	switch {
	case err == nil:
		status.Valid = true
		status.Expiry = token.Expiry
	case utils.KindOf(err) == utils.KindConflict:
		status.Reason = err.Error()
		status.Expiry = conn.Expiry
	default:
		return nil, err
	}
	return status, nil
}

func (s *ConnectionService) List(ctx context.Context) ([]models.OAuthConnection, error) {
	var conns []models.OAuthConnection
	if err := s.DB.WithContext(ctx).Order("provider").Find(&conns).Error; err != nil {
		return nil, utils.StorageFailure(err, "Failed to list connections")
	}
	return conns, nil
}

func (s *ConnectionService) Delete(ctx context.Context, provider string) error {
	if _, ok := s.Providers[provider]; !ok {
		return utils.Missing("Unknown provider %q", provider)
	}
	result := s.DB.WithContext(ctx).Unscoped().Where("provider = ?", provider).Delete(&models.OAuthConnection{})
	if result.Error != nil {
		return utils.StorageFailure(result.Error, "Failed to delete connection")
	}
	if result.RowsAffected == 0 {
		return utils.Missing("No %s connection", provider)
	}
	return nil
}
