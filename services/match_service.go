package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"waggle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultUserMatchLimit is the page size of GetUserMatches when none is given.
const DefaultUserMatchLimit = 10

// MatchService persists Match records keyed by the canonical pair key.
// Dogs backs GetMatchDetails; Notifier, when set, hears about answered matches.
type MatchService struct {
	Dynamo    *DynamoService
	TableName string
	Now       func() time.Time
	Dogs      DogDirectory
	Notifier  StatusNotifier
}

// UserMatchesOptions filters GetUserMatches. A zero Status lists every
// non-deleted match.
type UserMatchesOptions struct {
	Status models.MatchStatus
	Limit  int
}

func (s *MatchService) table() string {
	if s.TableName == "" {
		return models.MatchesTable
	}
	return s.TableName
}

func (s *MatchService) now() string {
	if s.Now != nil {
		return s.Now().UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// GetMatch fetches a match by id. A missing match yields ErrMatchNotFound.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	item, err := s.Dynamo.GetItem(ctx, s.table(), stringKey("matchId", matchID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		log.Printf("❌ Error unmarshalling match: %v", err)
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return &match, nil
}

// CreateMatch inserts match unless a live match already occupies its pair key.
// A deleted match for the same pair is overwritten. Collisions yield ErrMatchExists.
func (s *MatchService) CreateMatch(ctx context.Context, match *models.Match) error {
	if match.MatchID == "" {
		match.MatchID = models.PairKey(match.Dog1ID, match.Dog2ID)
	}

	err := s.Dynamo.PutItemWithCondition(ctx, s.table(), match,
		"attribute_not_exists(matchId) OR #status = :deleted",
		map[string]string{"#status": "status"},
		map[string]types.AttributeValue{
			":deleted": &types.AttributeValueMemberS{Value: string(models.MatchStatusDeleted)},
		},
	)
	if errors.Is(err, ErrConditionFailed) {
		return ErrMatchExists
	}
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetMatchesForDog returns every non-deleted match the dog takes part in,
// most recent activity first.
func (s *MatchService) GetMatchesForDog(ctx context.Context, dogID string) ([]models.Match, error) {
	var matches []models.Match
	for _, index := range []string{models.Dog1IDIndex, models.Dog2IDIndex} {
		found, err := s.queryMatches(ctx, index, dogID)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}
	sortByActivity(matches)

	log.Printf("✅ Found %d matches for dog: %s", len(matches), dogID)
	return matches, nil
}

// GetUserMatches lists an owner's matches, tagged "sent" when the owner's dog
// is dog1 and "received" when it is dog2, most recent activity first.
func (s *MatchService) GetUserMatches(ctx context.Context, userID string, opts UserMatchesOptions) (*models.UserMatchPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultUserMatchLimit
	}

	var all []models.UserMatch
	for _, q := range []struct{ index, direction string }{
		{models.Dog1OwnerIDIndex, models.MatchDirectionSent},
		{models.Dog2OwnerIDIndex, models.MatchDirectionReceived},
	} {
		found, err := s.queryMatches(ctx, q.index, userID)
		if err != nil {
			return nil, err
		}
		for _, match := range found {
			if opts.Status != "" && match.Status != opts.Status {
				continue
			}
			all = append(all, models.UserMatch{Match: match, Type: q.direction})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LastActivity > all[j].LastActivity
	})

	page := &models.UserMatchPage{Matches: all, HasMore: len(all) > limit}
	if page.HasMore {
		page.Matches = all[:limit]
	}
	if page.Matches == nil {
		page.Matches = []models.UserMatch{}
	}

	log.Printf("✅ Found %d matches for user: %s", len(page.Matches), userID)
	return page, nil
}

// GetMatchDetails returns a match with both dog profiles. A dog that no
// longer exists yields ErrDogNotFound.
func (s *MatchService) GetMatchDetails(ctx context.Context, matchID string) (*models.MatchDetails, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if s.Dogs == nil {
		return nil, errors.New("match details need a dog directory")
	}

	details := &models.MatchDetails{Match: *match}
	for _, d := range []struct {
		id  string
		dst **models.DogProfile
	}{{match.Dog1ID, &details.Dog1}, {match.Dog2ID, &details.Dog2}} {
		dog, err := s.Dogs.GetDogByDogID(ctx, d.id)
		if err != nil {
			return nil, err
		}
		if dog == nil {
			return nil, fmt.Errorf("%w: %s", ErrDogNotFound, d.id)
		}
		*d.dst = dog
	}
	return details, nil
}

// queryMatches reads one match GSI and drops deleted matches.
func (s *MatchService) queryMatches(ctx context.Context, index, value string) ([]models.Match, error) {
	attribute := strings.TrimSuffix(index, "-index")
	items, err := s.Dynamo.QueryAllItemsWithIndex(ctx, s.table(), index,
		attribute+" = :value",
		map[string]types.AttributeValue{
			":value": &types.AttributeValueMemberS{Value: value},
		}, nil, 100)
	if err != nil {
		log.Printf("❌ Error querying %s: %v", index, err)
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}

	var matches []models.Match
	for _, item := range items {
		var match models.Match
		if err := attributevalue.UnmarshalMap(item, &match); err != nil {
			log.Printf("❌ Error unmarshalling match from %s: %v", index, err)
			continue
		}
		if match.Status == models.MatchStatusDeleted {
			continue
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func sortByActivity(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].LastActivity > matches[j].LastActivity
	})
}

// UpdateMatchStatus moves a match to status on behalf of userID.
// Accepting or rejecting is reserved to the owner of dog2, the dog that was
// liked first; every other transition may be made by either owner.
func (s *MatchService) UpdateMatchStatus(ctx context.Context, matchID, userID string, status models.MatchStatus) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.MatchStatusAccepted, models.MatchStatusRejected:
		if match.Dog2OwnerID != userID {
			return nil, ErrUnauthorized
		}
	default:
		if !match.IsOwner(userID) {
			return nil, ErrUnauthorized
		}
	}

	if !models.CanTransition(match.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.Status, status)
	}

	now := s.now()
	active := status != models.MatchStatusDeleted
	updateExpression := "SET #status = :status, #updatedAt = :now, #lastActivity = :now, #respondedAt = :now, #respondedBy = :user, #active = :active"
	values := map[string]types.AttributeValue{
		":status":  &types.AttributeValueMemberS{Value: string(status)},
		":current": &types.AttributeValueMemberS{Value: string(match.Status)},
		":now":     &types.AttributeValueMemberS{Value: now},
		":user":    &types.AttributeValueMemberS{Value: userID},
		":active":  &types.AttributeValueMemberBOOL{Value: active},
	}
	names := map[string]string{
		"#status":       "status",
		"#updatedAt":    "updatedAt",
		"#lastActivity": "lastActivity",
		"#respondedAt":  "respondedAt",
		"#respondedBy":  "respondedBy",
		"#active":       "active",
	}

	// The status read above must still be current when the write lands.
	attrs, err := s.Dynamo.UpdateItemWithCondition(ctx, s.table(), updateExpression, "#status = :current",
		stringKey("matchId", matchID), values, names)
	if errors.Is(err, ErrConditionFailed) {
		return nil, fmt.Errorf("%w: match %s changed concurrently", ErrInvalidTransition, matchID)
	}
	if err != nil {
		return nil, err
	}

	updated := *match
	if len(attrs) > 0 {
		if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match: %w", err)
		}
	} else {
		updated.Status = status
		updated.Active = active
		updated.UpdatedAt, updated.LastActivity = now, now
		updated.RespondedAt, updated.RespondedBy = &now, &userID
	}

	log.Printf("✅ Match %s moved to %s by %s", matchID, status, userID)
	if s.Notifier != nil && (status == models.MatchStatusAccepted || status == models.MatchStatusRejected) {
		s.Notifier.NotifyStatusChange(ctx, &updated)
	}
	return &updated, nil
}
