package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"waggle_server/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// LikeRecordReader returns nil, nil for a dog that never liked anyone.
type LikeRecordReader interface {
	GetLikeRecord(ctx context.Context, dogID string) (*models.LikeRecord, error)
}

// DogDirectory returns nil, nil for an unknown dog.
type DogDirectory interface {
	GetDogByDogID(ctx context.Context, dogID string) (*models.DogProfile, error)
}

// MatchStore returns ErrMatchNotFound from GetMatch and ErrMatchExists from
// CreateMatch when the pair is already taken.
type MatchStore interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	CreateMatch(ctx context.Context, match *models.Match) error
}

// Notifier announces a freshly created match. It never fails the caller.
type Notifier interface {
	NotifyMatch(ctx context.Context, match *models.Match, dog1, dog2 *models.DogProfile)
}

// LikeEventHandler is implemented by MatchCoordinator and consumed by every event source.
type LikeEventHandler interface {
	HandleLikeUpdate(ctx context.Context, event models.LikeEvent) (*HandleResult, error)
}

// HandleResult summarises one invocation.
type HandleResult struct {
	EventID        string   `json:"eventId"`
	NewLikes       []string `json:"newLikes"`
	MatchesCreated []string `json:"matchesCreated"`
	Skipped        int      `json:"skipped"`
}

// MatchCoordinator turns LikeRecord mutations into matches and notifications.
// It holds no per-invocation state and is safe for concurrent use.
type MatchCoordinator struct {
	Likes    LikeRecordReader
	Dogs     DogDirectory
	Matches  MatchStore
	Notifier Notifier
	Now      func() time.Time
}

// NewLikes returns the ids present in after but absent from before, in after's
// order, without duplicates, self-likes or ids rejected by models.ValidDogID.
func NewLikes(dogID string, before, after *models.LikeRecord) []string {
	if !models.ValidDogID(dogID) {
		return nil
	}
	seen := make(map[string]struct{})
	if before != nil {
		for _, id := range before.Likes {
			seen[id] = struct{}{}
		}
	}

	var added []string
	if after == nil {
		return added
	}
	for _, id := range after.Likes {
		if id == dogID || !models.ValidDogID(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		added = append(added, id)
	}
	return added
}

// HandleLikeUpdate processes one LikeRecord mutation. Every newly liked dog is
// judged on its own; expected "nothing to do" outcomes are logged and absorbed,
// and only infrastructure errors are returned, joined across pairs.
func (c *MatchCoordinator) HandleLikeUpdate(ctx context.Context, event models.LikeEvent) (*HandleResult, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	result := &HandleResult{EventID: event.EventID, MatchesCreated: []string{}}

	result.NewLikes = NewLikes(event.DogID, event.Before, event.After)
	if len(result.NewLikes) == 0 {
		log.Printf("ℹ️ [%s] No new likes for dog %s", event.EventID, event.DogID)
		return result, nil
	}

	var errs []error
	for _, likedDogID := range result.NewLikes {
		matchID, err := c.processLike(ctx, event.EventID, event.DogID, likedDogID)
		if err != nil {
			log.Printf("❌ [%s] Failed to process like %s -> %s: %v", event.EventID, event.DogID, likedDogID, err)
			errs = append(errs, fmt.Errorf("like %s -> %s: %w", event.DogID, likedDogID, err))
			continue
		}
		if matchID == "" {
			result.Skipped++
			continue
		}
		result.MatchesCreated = append(result.MatchesCreated, matchID)
	}

	return result, errors.Join(errs...)
}

// processLike runs one pair through the pipeline. It returns the created
// match id, or "" when the pair ends without a match.
func (c *MatchCoordinator) processLike(ctx context.Context, eventID, dogID, likedDogID string) (string, error) {
	log.Printf("🐾 [%s] %s liked %s", eventID, dogID, likedDogID)

	mutual, err := c.isReciprocated(ctx, dogID, likedDogID)
	if err != nil {
		return "", err
	}
	if !mutual {
		return "", nil
	}
	log.Printf("💘 [%s] Mutual match: %s & %s", eventID, dogID, likedDogID)

	exists, err := c.matchExists(ctx, dogID, likedDogID)
	if err != nil {
		return "", err
	}
	if exists {
		log.Printf("⚠️ [%s] Match already exists between %s and %s", eventID, dogID, likedDogID)
		return "", nil
	}

	match, dog1, dog2, err := c.writeMatch(ctx, dogID, likedDogID)
	switch {
	case errors.Is(err, ErrDogNotFound), errors.Is(err, ErrInvalidProfile):
		log.Printf("❌ [%s] %v, skipping match creation", eventID, err)
		return "", nil
	case errors.Is(err, ErrMatchExists):
		log.Printf("⚠️ [%s] Match between %s and %s was created concurrently", eventID, dogID, likedDogID)
		return "", nil
	case err != nil:
		return "", err
	}
	log.Printf("✅ [%s] Match created: %s", eventID, match.MatchID)

	if c.Notifier != nil {
		c.Notifier.NotifyMatch(ctx, match, dog1, dog2)
	}
	return match.MatchID, nil
}

// isReciprocated reports whether candidateID already likes selfID.
func (c *MatchCoordinator) isReciprocated(ctx context.Context, selfID, candidateID string) (bool, error) {
	record, err := c.Likes.GetLikeRecord(ctx, candidateID)
	if err != nil {
		return false, err
	}
	return record.Contains(selfID), nil
}

// matchExists reports whether a live match occupies the pair. Both stored
// orders share one pair key, so a single read covers them.
func (c *MatchCoordinator) matchExists(ctx context.Context, a, b string) (bool, error) {
	match, err := c.Matches.GetMatch(ctx, models.PairKey(a, b))
	if errors.Is(err, ErrMatchNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return match.Status != models.MatchStatusDeleted, nil
}

// writeMatch loads and validates both dogs, then commits the match.
func (c *MatchCoordinator) writeMatch(ctx context.Context, dogID, likedDogID string) (*models.Match, *models.DogProfile, *models.DogProfile, error) {
	dog1, err := c.loadDog(ctx, dogID)
	if err != nil {
		return nil, nil, nil, err
	}
	dog2, err := c.loadDog(ctx, likedDogID)
	if err != nil {
		return nil, nil, nil, err
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	ts := now().UTC().Format(time.RFC3339)

	match := &models.Match{
		MatchID:      models.PairKey(dogID, likedDogID),
		Participants: []string{dogID, likedDogID},
		Dog1ID:       dogID,
		Dog2ID:       likedDogID,
		Dog1OwnerID:  dog1.OwnerID,
		Dog2OwnerID:  dog2.OwnerID,
		InitiatedBy:  dogID,
		Status:       models.MatchStatusPending,
		Active:       true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
		LastActivity: ts,
	}
	if err := c.Matches.CreateMatch(ctx, match); err != nil {
		return nil, nil, nil, err
	}
	return match, dog1, dog2, nil
}

func (c *MatchCoordinator) loadDog(ctx context.Context, dogID string) (*models.DogProfile, error) {
	dog, err := c.Dogs.GetDogByDogID(ctx, dogID)
	if err != nil {
		return nil, err
	}
	if dog == nil {
		return nil, fmt.Errorf("%w: %s", ErrDogNotFound, dogID)
	}
	if err := validate.Struct(dog); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, dogID, err)
	}
	return dog, nil
}
