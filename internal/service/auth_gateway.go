// Package service contains the application's business logic.
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"swappi/internal/config"
	"swappi/internal/models"
	"swappi/internal/repository"
	"swappi/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the result of a successful authentication call.
type Identity struct {
	UserID uint         `json:"user_id"`
	Token  string       `json:"token"`
	User   *models.User `json:"user"`
}

// CreateAccountInput carries the fields for a new account.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
}

// SignInInput carries credentials for an existing account.
type SignInInput struct {
	Email    string
	Password string
}

// AuthGateway authenticates users and issues session tokens. Backend failures
// are surfaced to the caller with their original message intact; the gateway
// never rewrites, retries, or reclassifies them.
type AuthGateway interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (*Identity, error)
	SignIn(ctx context.Context, in SignInInput) (*Identity, error)
}

type authGateway struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewAuthGateway returns a new AuthGateway backed by the given user repository.
func NewAuthGateway(userRepo repository.UserRepository, cfg *config.Config) AuthGateway {
	return &authGateway{userRepo: userRepo, cfg: cfg}
}

func (g *authGateway) CreateAccount(ctx context.Context, in CreateAccountInput) (*Identity, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Name, email, and password are required")
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := g.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, models.NewAuthError(err)
	}
	if existing != nil {
		return nil, models.NewValidationError("User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
	}
	if err := g.userRepo.Create(ctx, user); err != nil {
		return nil, models.NewAuthError(err)
	}

	token, err := g.generateToken(user.ID, user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &Identity{UserID: user.ID, Token: token, User: user}, nil
}

func (g *authGateway) SignIn(ctx context.Context, in SignInInput) (*Identity, error) {
	user, err := g.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, models.NewAuthError(err)
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := g.generateToken(user.ID, user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &Identity{UserID: user.ID, Token: token, User: user}, nil
}

// generateToken creates a JWT token for the given user ID and email
func (g *authGateway) generateToken(userID uint, email string) (string, error) {
	if g.cfg == nil || g.cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(userID), 10),
		"email": email,
		"iss":   "swappi-api",
		"aud":   "swappi-client",
		"exp":   now.Add(time.Hour * 24 * 7).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"jti":   generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(g.cfg.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
