package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
	"github.com/orcha-ai/orcha-backend/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("account is inactive")
	ErrDuplicateUser      = errors.New("username or email already registered")
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, string, error)
	Login(ctx context.Context, username, password string) (*types.User, string, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// ParseToken validates the token and returns its subject.
	ParseToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo

	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) (AuthService, error) {
	secret := strings.TrimSpace(utils.GetEnv("JWT_SECRET", "", log))
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	ttlMinutes := utils.GetEnvAsInt("JWT_TTL_MINUTES", 60*24, log)

	return &authService{
		db:        db,
		log:       log.With("service", "AuthService"),
		userRepo:  userRepo,
		jwtSecret: []byte(secret),
		tokenTTL:  time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*types.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("username, email and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &types.User{
		ID:       uuid.New(),
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		FullName: strings.TrimSpace(in.FullName),
		IsActive: true,
		PlanType: "free",
	}
	if _, err := s.userRepo.Create(dbctx.Context{Ctx: ctx}, []*types.User{user}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", ErrDuplicateUser
		}
		return nil, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", "user_id", user.ID.String(), "username", user.Username)
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*types.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	dbc := dbctx.Context{Ctx: ctx}
	users, err := s.userRepo.GetByUsernames(dbc, []string{username})
	if err != nil {
		return nil, "", err
	}
	if len(users) == 0 {
		// Allow login by email as well.
		users, err = s.userRepo.GetByEmails(dbc, []string{strings.ToLower(username)})
		if err != nil {
			return nil, "", err
		}
	}
	if len(users) == 0 {
		return nil, "", ErrInvalidCredentials
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrInactiveUser
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := s.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return users[0], nil
}

func (s *authService) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *authService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token subject")
	}
	return userID, nil
}
