package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"backend-picshare/internal/apperr"
	"backend-picshare/internal/db"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL     = time.Hour
	passwordCost = 12
)

// bcrypt rejects longer input; validator's max counts runes, not bytes.
const maxPasswordBytes = 72

var (
	ErrNoIdentity     = apperr.Unauthenticated("No user found with that email")
	ErrBadCredentials = apperr.Unauthenticated("Password is incorrect")
)

type Service struct {
	secret   []byte
	db       db.Querier
	validate *validator.Validate
	hashCost int
	now      func() time.Time
}

type Claims struct {
	IdentityID string `json:"userId"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret:   []byte(secret),
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		hashCost: passwordCost,
		now:      time.Now,
	}
}

var (
	hashPasswordFn    = bcrypt.GenerateFromPassword
	comparePasswordFn = bcrypt.CompareHashAndPassword
	parseWithClaimsFn = jwt.ParseWithClaims
)

// CreateIdentity validates every field before touching the store so that all
// violations are reported together.
func (s *Service) CreateIdentity(ctx context.Context, req SignupRequest) (Identity, error) {
	req.Email = normalizeEmail(req.Email)
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Lastname = strings.TrimSpace(req.Lastname)

	if violations := s.signupViolations(req); len(violations) > 0 {
		return Identity{}, apperr.Validation("Invalid Input", violations...)
	}

	var taken bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM identities WHERE lower(email) = $1)
	`, req.Email).Scan(&taken); err != nil {
		return Identity{}, apperr.Internal(err)
	}
	if taken {
		return Identity{}, emailTaken()
	}

	hash, err := hashPasswordFn([]byte(req.Password), s.hashCost)
	if err != nil {
		return Identity{}, apperr.Internal(err)
	}

	identity := Identity{
		ID:             uuid.NewString(),
		Firstname:      req.Firstname,
		Lastname:       req.Lastname,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Friends:        []string{},
		FriendRequests: []string{},
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO identities (id, firstname, lastname, email, password_hash)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, identity.ID, identity.Firstname, identity.Lastname, identity.Email, identity.PasswordHash)
	if err := row.Scan(&identity.CreatedAt, &identity.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return Identity{}, emailTaken()
		}
		return Identity{}, apperr.Internal(err)
	}
	return identity, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (LoginResponse, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return LoginResponse{}, apperr.Validation("Invalid Input",
			apperr.Violation{Field: "email", Message: "Please enter a valid email"})
	}

	row := s.db.QueryRow(ctx, `
		SELECT id, firstname, lastname, email, password_hash, friends, friend_requests, created_at, updated_at
		FROM identities WHERE lower(email) = $1
	`, email)

	var identity Identity
	if err := row.Scan(&identity.ID, &identity.Firstname, &identity.Lastname, &identity.Email, &identity.PasswordHash,
		&identity.Friends, &identity.FriendRequests, &identity.CreatedAt, &identity.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return LoginResponse{}, ErrNoIdentity
		}
		return LoginResponse{}, apperr.Internal(err)
	}

	if err := comparePasswordFn([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return LoginResponse{}, ErrBadCredentials
	}

	token, err := s.IssueToken(identity)
	if err != nil {
		return LoginResponse{}, apperr.Internal(err)
	}
	return LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(tokenTTL.Seconds()),
		Identity:  identity,
	}, nil
}

// IssueToken signs {userId, email} with a fixed one hour lifetime.
func (s *Service) IssueToken(identity Identity) (string, error) {
	now := s.now()
	claims := Claims{
		IdentityID: identity.ID,
		Email:      identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) VerifyToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.IdentityID == "" {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

// Profiles loads public profiles in the order of ids. Unknown ids are skipped.
func (s *Service) Profiles(ctx context.Context, ids []string) ([]Profile, error) {
	if len(ids) == 0 {
		return []Profile{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, firstname, lastname
		FROM identities WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	byID := make(map[string]Profile, len(ids))
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Firstname, &p.Lastname); err != nil {
			return nil, apperr.Internal(err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	profiles := make([]Profile, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (s *Service) signupViolations(req SignupRequest) []apperr.Violation {
	var violations []apperr.Violation
	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []apperr.Violation{{Message: err.Error()}}
		}
		namesReported := false
		for _, fe := range fieldErrs {
			switch fe.StructField() {
			case "Email":
				violations = append(violations, apperr.Violation{Field: "email", Message: "E-mail is invalid"})
			case "Firstname", "Lastname":
				if !namesReported {
					namesReported = true
					violations = append(violations, apperr.Violation{Field: "name", Message: "Both name fields are required"})
				}
			case "Password":
				violations = append(violations, apperr.Violation{Field: "password", Message: "Password is too short"})
			case "ConfirmPassword":
				violations = append(violations, apperr.Violation{Field: "confirm_password", Message: "Both Password fields should be the same"})
			}
		}
	}
	if len(req.Password) > maxPasswordBytes {
		violations = append(violations, apperr.Violation{Field: "password", Message: "Password is too long"})
	}
	return violations
}

func emailTaken() error {
	return apperr.Conflict("User exists already",
		apperr.Violation{Field: "email", Message: "Email already exists, use another one"})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
