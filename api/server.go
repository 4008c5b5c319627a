package api

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/kaikhaya123/RES-sub000/api/controllers"
	"github.com/kaikhaya123/RES-sub000/api/transport"
	"github.com/kaikhaya123/RES-sub000/engine"
	"github.com/kaikhaya123/RES-sub000/guard"
	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

type storages struct {
	voters      storage.VoterStorage
	contestants storage.ContestantStorage
	quota       storage.QuotaStorage
	ledger      storage.LedgerStorage
	snapshots   storage.SnapshotStorage
}

func (s *Server) buildStorages(ctx context.Context) *storages {
	if s.config.UseMemory {
		logging.Log.Warn("Using in-memory storage, state is lost on restart")
		return &storages{
			voters:      storage.NewMemoryVoterStorage(),
			contestants: storage.NewMemoryContestantStorage(),
			quota:       storage.NewMemoryQuotaStorage(),
			ledger:      storage.NewMemoryLedgerStorage(),
			snapshots:   storage.NewMemorySnapshotStorage(),
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}
	dynamoClient := dynamodb.NewFromConfig(cfg)

	return &storages{
		voters:      &storage.DynamoVoterStorage{Client: dynamoClient, TableName: s.config.TableNameVoters},
		contestants: &storage.DynamoContestantStorage{Client: dynamoClient, TableName: s.config.TableNameContestants},
		quota:       &storage.DynamoQuotaStorage{Client: dynamoClient, TableName: s.config.TableNameQuota},
		ledger:      &storage.DynamoLedgerStorage{Client: dynamoClient, TableName: s.config.TableNameLedger},
		snapshots:   &storage.DynamoSnapshotStorage{Client: dynamoClient, TableName: s.config.TableNameSnapshots},
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	ctx := context.Background()
	st := s.buildStorages(ctx)

	// Ledger sequence node; SHARD_ID distinguishes instances.
	shardID := int64(0)
	if v := os.Getenv("SHARD_ID"); v != "" {
		fmt.Sscanf(v, "%d", &shardID)
	}
	sequence, err := snowflake.NewNode(shardID)
	if err != nil {
		logging.Log.Errorf("failed to create sequence node: %v", err)
		panic("failed to create sequence node")
	}

	// Derived state: tallies rebuilt from the ledger before traffic.
	tallies := engine.NewTallyAggregator(st.ledger)
	if err := tallies.Rebuild(ctx); err != nil {
		logging.Log.Errorf("failed to rebuild tallies from ledger: %v", err)
		panic("failed to rebuild tallies from ledger")
	}

	ranker := engine.NewRanker(tallies, st.contestants, st.snapshots, s.config.RankingConfig.Interval, s.config.RetainSnapshots)
	if err := ranker.Restore(ctx); err != nil {
		logging.Log.Warnf("could not restore snapshot history: %v", err)
	}
	ranker.Start(ctx)

	leaderboard := engine.NewLeaderboard(ranker)

	fraudGuard := guard.New(guard.Config{
		BurstLimit:      s.config.GuardConfig.BurstLimit,
		BurstWindow:     s.config.GuardConfig.BurstWindow,
		SybilVoterLimit: s.config.GuardConfig.SybilVoterLimit,
		SybilWindow:     s.config.GuardConfig.SybilWindow,
	})
	fraudGuard.Start(ctx.Done())

	reconciler := engine.NewReconciler(st.ledger, tallies, s.config.ReconcileConfig.Interval)
	reconciler.Start(ctx)

	//Register controllers
	votingController := controllers.NewVotingController(
		st.voters, st.contestants, st.quota, st.ledger,
		fraudGuard, tallies, sequence, s.config.DefaultDailyAllowance)
	votingController.RegisterRoutes(r)

	leaderboardController := controllers.NewLeaderboardController(leaderboard)
	leaderboardController.RegisterRoutes(r)

	adminController := controllers.NewAdminController(
		st.voters, st.contestants, st.snapshots, tallies, s.config.DefaultDailyAllowance)
	adminController.RegisterRoutes(r)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

// startLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// startLocal starts a normal HTTP server on the configured port
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
