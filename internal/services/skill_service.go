package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// ISkillService exposes the static skill catalog. The catalog is seeded once
// at startup and only read afterwards.
type ISkillService interface {
	List(ctx context.Context) ([]models.Skill, error)
	FindByID(ctx context.Context, skillID utils.SixID) (*models.Skill, error)
	Seed(ctx context.Context, skills []models.Skill) error
}

const skillsCollection = "skills"

type skillService struct {
	db *mongo.Database
}

// NewSkillService creates a new SkillService.
func NewSkillService(database *mongo.Database) ISkillService {
	return &skillService{db: database}
}

// List retrieves the full catalog.
func (s *skillService) List(ctx context.Context) ([]models.Skill, error) {
	cursor, err := s.db.Collection(skillsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer cursor.Close(ctx)

	var skills []models.Skill
	if err = cursor.All(ctx, &skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills: %w", err)
	}
	return skills, nil
}

// FindByID retrieves a catalog entry by its ID.
func (s *skillService) FindByID(ctx context.Context, skillID utils.SixID) (*models.Skill, error) {
	var skill models.Skill
	err := s.db.Collection(skillsCollection).FindOne(ctx, bson.M{"_id": skillID}).Decode(&skill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("skill", skillID.String())
		}
		return nil, fmt.Errorf("error finding skill %s: %w", skillID.String(), err)
	}
	return &skill, nil
}

// Seed inserts catalog entries that are not present yet, matching by name.
func (s *skillService) Seed(ctx context.Context, skills []models.Skill) error {
	collection := s.db.Collection(skillsCollection)
	for _, skill := range skills {
		count, err := collection.CountDocuments(ctx, bson.M{"name": skill.Name})
		if err != nil {
			return fmt.Errorf("error checking skill %q: %w", skill.Name, err)
		}
		if count > 0 {
			continue
		}
		skill.GenIDIfEmpty()
		if _, err := collection.InsertOne(ctx, skill); err != nil {
			return fmt.Errorf("error seeding skill %q: %w", skill.Name, err)
		}
	}
	return nil
}

// DefaultSkillCatalog is the seed data applied at startup.
func DefaultSkillCatalog() []models.Skill {
	names := []struct{ name, category string }{
		{"Go", "backend"},
		{"Python", "backend"},
		{"JavaScript", "frontend"},
		{"React", "frontend"},
		{"SQL", "data"},
		{"Data Analysis", "data"},
		{"Project Management", "management"},
		{"Technical Writing", "communication"},
	}
	skills := make([]models.Skill, len(names))
	for i, n := range names {
		skills[i] = models.Skill{Name: n.name, Category: n.category}
	}
	return skills
}
