package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/storybook-backend/internal/data/repos"
	"github.com/yungbote/storybook-backend/internal/domain"
	types "github.com/yungbote/storybook-backend/internal/domain/user"
	"github.com/yungbote/storybook-backend/internal/platform/ctxutil"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = &domain.Error{Code: domain.CodeValidation, Op: "AuthService.Login", Message: "Invalid credentials."}

const (
	MsgUserExists   = "User already exists."
	MsgMissingInput = "Missing required input."
	MsgUnauthorized = "Unauthorized access."
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) Register(ctx context.Context, email, password string) (string, error) {
	const op = "AuthService.Register"
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", domain.NewError(domain.CodeValidation, op, MsgMissingInput, nil)
	}
	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", domain.NewError(domain.CodeValidation, op, MsgUserExists, nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.Wrap(domain.CodeStorage, op, err)
	}
	created, err := as.userRepo.Create(ctx, nil, &types.User{Email: email, Password: string(hashed)})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", domain.NewError(domain.CodeValidation, op, MsgUserExists, err)
		}
		return "", err
	}
	as.log.Info("user registered", "user_id", created.ID.String())
	return as.generateAccessToken(created.ID)
}

func (as *authService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "AuthService.Login"
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", domain.NewError(domain.CodeValidation, op, MsgMissingInput, nil)
	}
	user, err := as.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return as.generateAccessToken(user.ID)
}

func (as *authService) generateAccessToken(userID uuid.UUID) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", domain.Wrap(domain.CodeAuth, "AuthService.generateAccessToken", err)
	}
	return signed, nil
}

// SetContextFromToken validates a bearer token and attaches the caller to
// ctx. Missing, malformed and expired tokens are auth errors.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "AuthService.SetContextFromToken"
	if strings.TrimSpace(tokenString) == "" {
		return ctx, domain.NewError(domain.CodeAuth, op, MsgUnauthorized, nil)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return ctx, domain.NewError(domain.CodeAuth, op, MsgUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, domain.NewError(domain.CodeAuth, op, MsgUnauthorized, nil)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, domain.NewError(domain.CodeAuth, op, MsgUnauthorized, err)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
