package services

import (
	"context"
	"sync"

	"waggle_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type fakeLikes struct {
	mu      sync.Mutex
	records map[string]*models.LikeRecord
	errFor  map[string]error
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{records: map[string]*models.LikeRecord{}, errFor: map[string]error{}}
}

func (f *fakeLikes) set(dogID string, likes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[dogID] = &models.LikeRecord{DogID: dogID, Likes: likes}
}

func (f *fakeLikes) GetLikeRecord(ctx context.Context, dogID string) (*models.LikeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[dogID]; err != nil {
		return nil, err
	}
	return f.records[dogID], nil
}

type fakeDogs struct {
	dogs    map[string]*models.DogProfile
	lookups int
	mu      sync.Mutex
}

func newFakeDogs(dogs ...*models.DogProfile) *fakeDogs {
	f := &fakeDogs{dogs: map[string]*models.DogProfile{}}
	for _, d := range dogs {
		f.dogs[d.DogID] = d
	}
	return f
}

func (f *fakeDogs) GetDogByDogID(ctx context.Context, dogID string) (*models.DogProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.dogs[dogID], nil
}

// fakeMatches enforces the same insert-if-absent rule as MatchService.CreateMatch.
type fakeMatches struct {
	mu        sync.Mutex
	matches   map[string]*models.Match
	created   []*models.Match
	getErr    error
	hideReads bool
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{matches: map[string]*models.Match{}}
}

func (f *fakeMatches) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.matches[matchID]
	if !ok || f.hideReads {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatches) CreateMatch(ctx context.Context, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.matches[match.MatchID]; ok && existing.Status != models.MatchStatusDeleted {
		return ErrMatchExists
	}
	f.matches[match.MatchID] = match
	f.created = append(f.created, match)
	return nil
}

func (f *fakeMatches) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type notifyCall struct {
	match      *models.Match
	dog1, dog2 *models.DogProfile
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) NotifyMatch(ctx context.Context, match *models.Match, dog1, dog2 *models.DogProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{match: match, dog1: dog1, dog2: dog2})
}

type fakeTokens struct {
	tokens map[string]string
	err    error
}

func (f *fakeTokens) GetPushToken(ctx context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[userID], nil
}

type fakePush struct {
	mu   sync.Mutex
	sent []models.PushMessage
	err  error
}

func (f *fakePush) Send(ctx context.Context, msg models.PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

type broadcast struct {
	ownerID string
	event   models.MatchEvent
}

type fakeBroadcaster struct {
	events []broadcast
}

func (f *fakeBroadcaster) BroadcastMatch(ownerID string, event models.MatchEvent) {
	f.events = append(f.events, broadcast{ownerID: ownerID, event: event})
}

// fakeDynamo answers DynamoAPI calls through per-operation hooks and records inputs.
type fakeDynamo struct {
	getItem       func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem       func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem    func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	query         func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	describeTable func(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)

	gets    []*dynamodb.GetItemInput
	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	queries []*dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, in)
	if f.getItem == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getItem(in)
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.putItem == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return f.putItem(in)
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.updateItem == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.updateItem(in)
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if f.query == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.query(in)
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeTable == nil {
		return &dynamodb.DescribeTableOutput{}, nil
	}
	return f.describeTable(in)
}
