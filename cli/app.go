package cli

import (
	"context"
	"fmt"
	"log"

	"waggle_server/config"
	"waggle_server/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
)

// App bundles the wired services of one process.
type App struct {
	Config        *config.Config
	AWS           aws.Config
	Dynamo        *services.DynamoService
	Likes         *services.LikeService
	Dogs          *services.DogProfileService
	Users         *services.UserProfileService
	Matches       *services.MatchService
	Notifications *services.NotificationService
	Notifier      *services.MatchNotifier
	Coordinator   *services.MatchCoordinator
}

// NewApp builds the services from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log.Println("Initializing DynamoDB client...")
	awsCfg, err := services.InitializeAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	dynamo := &services.DynamoService{Client: services.InitializeDynamoDBClient(awsCfg, cfg.DynamoDBEndpoint)}
	log.Println("DynamoDB client initialized.")

	app := &App{
		Config: cfg,
		AWS:    awsCfg,
		Dynamo: dynamo,
		Likes:  &services.LikeService{Dynamo: dynamo, TableName: cfg.DogSwipesTable},
		Dogs:   &services.DogProfileService{Dynamo: dynamo, TableName: cfg.DogsTable, IndexName: cfg.DogIDIndex},
		Users:  &services.UserProfileService{Dynamo: dynamo, TableName: cfg.UsersTable},
	}
	app.Notifications = &services.NotificationService{Dynamo: dynamo, TableName: cfg.NotificationsTable}

	router := &services.PushRouter{
		Expo: &services.ExpoPushSender{URL: cfg.ExpoPushURL, AccessToken: cfg.ExpoAccessToken},
	}
	if cfg.WebPushEnabled() {
		router.WebPush = &services.WebPushSender{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.VAPIDSubscriber,
		}
	} else {
		log.Println("⚠️ VAPID keys not configured, web push disabled")
	}
	app.Notifier = &services.MatchNotifier{Users: app.Users, Push: router, Inbox: app.Notifications}
	app.Matches = &services.MatchService{
		Dynamo:    dynamo,
		TableName: cfg.MatchesTable,
		Dogs:      app.Dogs,
		Notifier:  app.Notifier,
	}

	app.Coordinator = &services.MatchCoordinator{
		Likes:    app.Likes,
		Dogs:     app.Dogs,
		Matches:  app.Matches,
		Notifier: app.Notifier,
	}
	return app, nil
}

// StreamConsumer builds the DogSwipes stream consumer, resolving the stream
// ARN from the table when none is configured.
func (a *App) StreamConsumer(ctx context.Context) (*services.LikeStreamConsumer, error) {
	arn := a.Config.StreamARN
	if arn == "" {
		var err error
		if arn, err = a.Dynamo.LatestStreamARN(ctx, a.Config.DogSwipesTable); err != nil {
			return nil, err
		}
	}
	if arn == "" {
		return nil, fmt.Errorf("table %s has no stream enabled", a.Config.DogSwipesTable)
	}

	streams := dynamodbstreams.NewFromConfig(a.AWS, func(o *dynamodbstreams.Options) {
		if a.Config.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(a.Config.DynamoDBEndpoint)
		}
	})
	return &services.LikeStreamConsumer{
		Streams:       streams,
		StreamARN:     arn,
		Handler:       a.Coordinator,
		PollInterval:  a.Config.StreamPollInterval,
		StartPosition: streamStart(a.Config.StreamStart),
	}, nil
}
