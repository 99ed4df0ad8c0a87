package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"habitta/internal/database"
	"habitta/internal/middleware"
	"habitta/internal/models"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string         `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string         `json:"lastName" binding:"omitempty,max=50"`
	Phone     *string         `json:"phone"`
	NIF       *string         `json:"nif" binding:"omitempty,len=9,numeric"`
	Company   *string         `json:"company"`
	Address   *models.Address `json:"address"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type LoginResponseUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func responseUser(c models.Customer) LoginResponseUser {
	return LoginResponseUser{
		ID:        c.ID.Hex(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Role:      c.Role,
	}
}

/* =========================
   TOKENS
========================= */

// TokenIssuer signs access tokens and stores the hashed refresh tokens.
type TokenIssuer struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Refresh    RefreshTokenRepository
	Clock      func() time.Time
}

type issuedTokens struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID primitive.ObjectID
	ExpiresIn      int64
}

func (t *TokenIssuer) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

func (t *TokenIssuer) accessToken(customer models.Customer, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   customer.ID.Hex(),
		"role":  customer.Role,
		"email": customer.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(t.AccessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.Secret))
}

func (t *TokenIssuer) issue(ctx context.Context, customer models.Customer) (*issuedTokens, error) {
	now := t.now()
	access, err := t.accessToken(customer, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	plainRefresh, err := generateRefreshString()
	if err != nil {
		return nil, err
	}

	refresh := models.RefreshToken{
		CustomerID: customer.ID,
		TokenHash:  hashToken(plainRefresh),
		ExpiresAt:  now.Add(t.RefreshTTL),
		CreatedAt:  now,
	}
	if err := t.Refresh.Insert(ctx, &refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &issuedTokens{
		AccessToken:    access,
		RefreshToken:   plainRefresh,
		RefreshTokenID: refresh.ID,
		ExpiresIn:      int64(t.AccessTTL.Seconds()),
	}, nil
}

func tokenBody(tokens *issuedTokens, customer models.Customer) gin.H {
	return gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresIn":    tokens.ExpiresIn,
		"user":         responseUser(customer),
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

/* =========================
   VALIDATION
========================= */

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		apiLog().Warn().Str("route", route).Strs("details", details).Msg("validation failed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	apiLog().Warn().Str("route", route).Err(err).Msg("invalid body")
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

/* =========================
   REGISTER
========================= */

func Register(customers CustomerRepository, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			authLog().Error().Err(err).Msg("password hash failed")
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := issuer.now()
		customer := models.Customer{
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: string(hash),
			IsActive:     true,
			Role:         models.RoleCustomer,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := customers.Create(ctx, &customer); err != nil {
			if errors.Is(err, database.ErrEmailTaken) {
				respondWithError(c, http.StatusConflict, route, "email already registered")
				return
			}
			authLog().Error().Err(err).Msg("customer insert failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		tokens, err := issuer.issue(ctx, customer)
		if err != nil {
			authLog().Error().Err(err).Msg("token generation failed")
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		authLog().Info().Str("customer", customer.ID.Hex()).Msg("customer registered")
		c.JSON(http.StatusCreated, tokenBody(tokens, customer))
	}
}

/* =========================
   LOGIN
========================= */

// authenticateCustomer checks the credentials and writes the error response when
// they do not hold.
func authenticateCustomer(ctx context.Context, c *gin.Context, customers CustomerRepository, route string, req LoginRequest, roles ...string) (models.Customer, bool) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	customer, err := customers.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrCustomerNotFound) {
		authLog().Warn().Str("email", email).Msg("login for unknown email")
		respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
		return models.Customer{}, false
	}
	if err != nil {
		authLog().Error().Err(err).Msg("customer lookup failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.Customer{}, false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		authLog().Warn().Str("customer", customer.ID.Hex()).Msg("invalid credentials")
		respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
		return models.Customer{}, false
	}

	if len(roles) > 0 && !slices.Contains(roles, customer.Role) {
		respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
		return models.Customer{}, false
	}

	if !customer.IsActive {
		respondWithError(c, http.StatusForbidden, route, "user is inactive")
		return models.Customer{}, false
	}

	return customer, true
}

func Login(customers CustomerRepository, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		customer, ok := authenticateCustomer(ctx, c, customers, route, req)
		if !ok {
			return
		}

		tokens, err := issuer.issue(ctx, customer)
		if err != nil {
			authLog().Error().Err(err).Msg("token generation failed")
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		if err := customers.TouchLogin(ctx, customer.ID, issuer.now()); err != nil {
			authLog().Warn().Err(err).Str("customer", customer.ID.Hex()).Msg("last login not recorded")
		}

		authLog().Info().Str("customer", customer.ID.Hex()).Msg("login succeeded")
		c.JSON(http.StatusOK, tokenBody(tokens, customer))
	}
}

/* =========================
   REFRESH / LOGOUT
========================= */

// Refresh rotates a refresh token. The presented token is claimed (revoked) before
// new tokens are issued, so concurrent refreshes with one token yield one winner.
func Refresh(customers CustomerRepository, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/refresh"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		token, err := issuer.Refresh.Claim(ctx, hashToken(strings.TrimSpace(req.RefreshToken)))
		if errors.Is(err, database.ErrRefreshNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}
		if err != nil {
			authLog().Error().Err(err).Msg("refresh token lookup failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if issuer.now().After(token.ExpiresAt) {
			respondWithError(c, http.StatusUnauthorized, route, "refresh token expired")
			return
		}

		customer, err := customers.FindByID(ctx, token.CustomerID)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "user not found")
			return
		}
		if !customer.IsActive {
			respondWithError(c, http.StatusForbidden, route, "user is inactive")
			return
		}

		tokens, err := issuer.issue(ctx, customer)
		if err != nil {
			authLog().Error().Err(err).Msg("token generation failed")
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		if err := issuer.Refresh.Revoke(ctx, token.ID, &tokens.RefreshTokenID); err != nil {
			authLog().Warn().Err(err).Msg("refresh token successor not recorded")
		}

		c.JSON(http.StatusOK, tokenBody(tokens, customer))
	}
}

func Logout(refresh RefreshTokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/logout"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		err := refresh.RevokeByHash(ctx, hashToken(strings.TrimSpace(req.RefreshToken)))
		if errors.Is(err, database.ErrRefreshNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}
		if err != nil {
			authLog().Error().Err(err).Msg("logout failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

/* =========================
   PROFILE
========================= */

func currentCustomer(ctx context.Context, c *gin.Context, customers CustomerRepository, route string) (models.Customer, bool) {
	actor := middleware.ActorFrom(c)
	id, err := primitive.ObjectIDFromHex(actor.ID)
	if err != nil {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return models.Customer{}, false
	}
	customer, err := customers.FindByID(ctx, id)
	if errors.Is(err, database.ErrCustomerNotFound) {
		respondWithError(c, http.StatusNotFound, route, "user not found")
		return models.Customer{}, false
	}
	if err != nil {
		authLog().Error().Err(err).Msg("customer lookup failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.Customer{}, false
	}
	return customer, true
}

func GetMe(customers CustomerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		customer, ok := currentCustomer(ctx, c, customers, route)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": customer})
	}
}

func UpdateProfile(customers CustomerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/profile"
		defer handlePanic(c, route)

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		update := bson.M{}
		if req.FirstName != nil {
			update["firstName"] = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			update["lastName"] = strings.TrimSpace(*req.LastName)
		}
		if req.Phone != nil {
			update["phone"] = strings.TrimSpace(*req.Phone)
		}
		if req.NIF != nil {
			update["nif"] = strings.TrimSpace(*req.NIF)
		}
		if req.Company != nil {
			update["company"] = strings.TrimSpace(*req.Company)
		}
		if req.Address != nil {
			update["address"] = *req.Address
		}
		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		customer, ok := currentCustomer(ctx, c, customers, route)
		if !ok {
			return
		}

		updated, err := customers.Update(ctx, customer.ID, update)
		if err != nil {
			authLog().Error().Err(err).Msg("profile update failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": updated})
	}
}

func ChangePassword(customers CustomerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/password"
		defer handlePanic(c, route)

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		customer, ok := currentCustomer(ctx, c, customers, route)
		if !ok {
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		if _, err := customers.Update(ctx, customer.ID, bson.M{"passwordHash": string(hash)}); err != nil {
			authLog().Error().Err(err).Msg("password update failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		authLog().Info().Str("customer", customer.ID.Hex()).Msg("password changed")
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}
