package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/peopledb/peopledb/internal/config"
	"github.com/peopledb/peopledb/internal/database"
	"github.com/peopledb/peopledb/internal/person/repository"
	"github.com/peopledb/peopledb/internal/person/service"
	"github.com/peopledb/peopledb/pkg/logger"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

// offline marks commands that never touch the store.
const offline = "offline"

type app struct {
	memory   bool
	logLevel string

	svc    service.Service
	client *mongo.Client
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "peoplectl",
		Short: "Create, query, update and delete Person records",
		Long: `peoplectl runs one person operation per invocation.

Connection settings come from the environment (MONGO_URI or MONGODB_URI,
MONGODB_DATABASE, MONGODB_COLLECTION) and an optional .env file.

Example:
  peoplectl create-many
  peoplectl add-food 010 Hamburger
  peoplectl --memory demo`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}
	root.PersistentFlags().BoolVar(&a.memory, "memory", false, "use an in-memory store instead of MongoDB")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error); defaults to LOG_LEVEL")

	root.AddCommand(
		a.seedCmd(),
		a.createManyCmd(),
		a.findNameCmd(),
		a.findFoodCmd(),
		a.findIDCmd(),
		a.addFoodCmd(),
		a.updateAgeCmd(),
		a.deleteIDCmd(),
		a.deleteNameCmd(),
		a.burritosCmd(),
		a.demoCmd(),
		tokenCmd(),
	)
	return root, a
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	if a.logLevel != "" {
		logger.Init(a.logLevel)
	}
	if cmd.Annotations[offline] == "true" {
		return nil
	}
	if a.memory {
		a.svc = service.NewMemoryService()
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if a.logLevel == "" {
		logger.Init(cfg.Log.Level)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		return err
	}
	a.client = client
	logger.Infof("Connected to MongoDB Successfully")

	repo := repository.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection), cfg.MongoDB.OpTimeout)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warnf("could not ensure id index: %v", err)
	}
	a.svc = service.NewService(repo)
	return nil
}

func (a *app) close() {
	if a.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
	a.client = nil
}

// report prints label followed by v as indented JSON.
func report(cmd *cobra.Command, label string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", label, b)
	return err
}
