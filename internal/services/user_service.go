package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirrryasir/edoskill360-sub000/internal/auth"
	"github.com/sirrryasir/edoskill360-sub000/internal/db"
	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// ErrEmailExists is returned when an attempt is made to use an email that
// already belongs to another account.
var ErrEmailExists = errors.New("email already in use by another account")

// ErrInvalidCredentials is returned on a failed login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// IUserService defines account operations. Everything that mutates the
// verification stage lives in IVerificationService, not here.
type IUserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetClaimedSkills(ctx context.Context, userID utils.SixID, skillIDs []utils.SixID) error
}

const usersCollection = "users"

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database) IUserService {
	return &userService{db: database}
}

// Register creates a new user at the initial verification stage with a zero
// trust breakdown. The verification record is never deleted afterwards, only
// advanced by the state machine.
func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
	}

	now := time.Now().UTC()
	var newUser *models.User

	operation := func() error {
		newUser = &models.User{
			Base:         models.NewBase(), // ID regenerated on each attempt
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleUser,
			Stage:        models.StageUnverified,
			StageVersion: 0,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, newUser)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting user for %s: %w", email, err)
	}
	return newUser, nil
}

// Authenticate checks the credentials and returns the user on success.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindByID finds a non-deleted user by their ID.
func (s *userService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	filter := bson.M{"_id": userID, "deleted": false}
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %s: %w", userID.String(), err)
	}
	return &user, nil
}

// FindByEmail finds a non-deleted user by email. Returns
// mongo.ErrNoDocuments when absent.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	filter := bson.M{"email": email, "deleted": false}
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}

// SetClaimedSkills replaces the set of skills the user wants verified. The
// skills-complete gate aggregates over this set.
func (s *userService) SetClaimedSkills(ctx context.Context, userID utils.SixID, skillIDs []utils.SixID) error {
	update := bson.M{"$set": bson.M{
		"claimed_skill_ids": skillIDs,
		"updated_at":        time.Now().UTC(),
	}}
	result, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": userID, "deleted": false}, update)
	if err != nil {
		return fmt.Errorf("error setting claimed skills for user %s: %w", userID.String(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
