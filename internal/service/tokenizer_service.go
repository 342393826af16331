package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"card-payment-pipeline/internal/core/domain"
	"card-payment-pipeline/internal/core/ports"
	"card-payment-pipeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenizerServiceImpl implements ports.TokenizerService.
type TokenizerServiceImpl struct {
	cardRepo  ports.CardRepository
	tokenRepo ports.TokenRepository
	ttl       time.Duration
	log       zerolog.Logger
}

// NewTokenizerService creates a new TokenizerServiceImpl.
func NewTokenizerService(cardRepo ports.CardRepository, tokenRepo ports.TokenRepository, ttl time.Duration, log zerolog.Logger) *TokenizerServiceImpl {
	return &TokenizerServiceImpl{
		cardRepo:  cardRepo,
		tokenRepo: tokenRepo,
		ttl:       ttl,
		log:       log,
	}
}

// Issue mints a new token bound to the card+transaction pair. Every call
// mints a fresh token; there is no idempotency requirement here.
func (s *TokenizerServiceImpl) Issue(ctx context.Context, req ports.TokenIssueRequest) (*domain.Token, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	card, err := s.cardRepo.GetByID(ctx, req.CardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("card lookup: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound()
	}

	value, err := deriveTokenValue(req.CardID, req.TransactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("derive token value: %w", err))
	}

	now := time.Now().UTC()
	token := &domain.Token{
		ID:        uuid.New(),
		CardID:    req.CardID,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Status:    domain.TokenStatusActive,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create token: %w", err))
	}

	maintenance := &domain.TokenMaintenance{
		ID:        uuid.New(),
		TokenID:   token.ID,
		Action:    domain.TokenActionCreate,
		CreatedAt: now,
	}
	if err := s.tokenRepo.RecordMaintenance(ctx, maintenance); err != nil {
		s.log.Warn().Err(err).Str("token_id", token.ID.String()).Msg("failed to record token maintenance entry")
	}

	s.log.Info().
		Str("token_id", token.ID.String()).
		Str("transaction_id", req.TransactionID.String()).
		Time("expires_at", token.ExpiresAt).
		Msg("token issued")

	return token, nil
}

// Validate fetches a token and enforces expiry on read. An expired active
// token is flipped to expired as a side effect.
func (s *TokenizerServiceImpl) Validate(ctx context.Context, tokenID uuid.UUID) (*domain.Token, error) {
	token, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("token lookup: %w", err))
	}
	if token == nil {
		return nil, apperror.ErrTokenNotFound()
	}

	if token.Status == domain.TokenStatusActive && token.IsExpired(time.Now().UTC()) {
		token.Status = domain.TokenStatusExpired
		if err := s.tokenRepo.UpdateStatus(ctx, token.ID, domain.TokenStatusExpired); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("expire token: %w", err))
		}
		if err := s.tokenRepo.RecordMaintenance(ctx, &domain.TokenMaintenance{
			ID:        uuid.New(),
			TokenID:   token.ID,
			Action:    domain.TokenActionExpire,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			s.log.Warn().Err(err).Str("token_id", token.ID.String()).Msg("failed to record token maintenance entry")
		}
	}

	return token, nil
}

// deriveTokenValue produces the opaque token value: a SHA-256 over 32 bytes
// of fresh random material and the card+transaction binding. The card id is
// not recoverable from the value.
func deriveTokenValue(cardID, transactionID uuid.UUID) (string, error) {
	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write(material)
	h.Write(cardID[:])
	h.Write(transactionID[:])
	return hex.EncodeToString(h.Sum(nil)), nil
}
