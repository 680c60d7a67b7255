package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"
	"planboard/pkg/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserService handles local account registration and token issuance
type UserService struct {
	mongoDB *database.MongoDB
	jwtAuth *auth.LocalJWTAuth
}

// NewUserService creates a new user service
func NewUserService(mongoDB *database.MongoDB, jwtAuth *auth.LocalJWTAuth) *UserService {
	return &UserService{
		mongoDB: mongoDB,
		jwtAuth: jwtAuth,
	}
}

// collection returns the users collection
func (s *UserService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionUsers)
}

// Register creates an account and returns a fresh token pair
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email address is required")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, apperr.Validation("first name is required")
	}

	count, err := s.collection().CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("an account with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         "user",
		CreatedAt:    now,
	}

	result, err := s.collection().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	log.Printf("✅ Account registered: %s", email)
	return s.issueTokens(user)
}

// Login verifies credentials and returns a fresh token pair
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := s.collection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.AccessDenied("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, apperr.AccessDenied("invalid email or password")
	}

	_, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastLoginAt": time.Now()}},
	)
	if err != nil {
		log.Printf("⚠️  Failed to record login time for %s: %v", email, err)
	}

	return s.issueTokens(&user)
}

// Refresh exchanges a valid refresh token for a new token pair. Tokens
// issued before the last logout carry a stale version and are rejected.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	claims, err := s.jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.AccessDenied("invalid or expired refresh token")
	}

	user, err := s.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.AccessDenied("account no longer exists")
	}
	if claims.TokenVersion != user.RefreshTokenVersion {
		return nil, apperr.AccessDenied("refresh token has been revoked")
	}

	return s.issueTokens(user)
}

// Logout revokes all outstanding refresh tokens for the user
func (s *UserService) Logout(ctx context.Context, userID string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperr.Validation("invalid user ID")
	}

	_, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$inc": bson.M{"refreshTokenVersion": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// GetByID loads one user
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Validation("invalid user ID")
	}

	var user models.User
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) issueTokens(user *models.User) (*models.TokenResponse, error) {
	access, refresh, err := s.jwtAuth.GenerateTokens(
		user.ID.Hex(), user.Email, user.Role, user.RefreshTokenVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Summary(),
	}, nil
}
