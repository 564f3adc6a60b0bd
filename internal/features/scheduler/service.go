package scheduler

import (
	"context"
	"fmt"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/database"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReminderService runs the recurring pending-approval sweep. Each tick counts
// documents stuck in Pending per tenant and application and reports them, so
// operators can chase stalled approvals.
type ReminderService struct {
	Documents *mongo.Collection
	Logger    *zap.Logger
	Spec      string

	scheduler *cron.Cron
}

func NewReminderService(mongodb *database.MongodbDB, cfg *config.Config, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		Documents: mongodb.DB.Collection("documents"),
		Logger:    logger,
		Spec:      cfg.ReminderSpec,
	}
}

func (s *ReminderService) Start() error {
	if _, err := cron.ParseStandard(s.Spec); err != nil {
		return fmt.Errorf("invalid reminder cron expression %q: %w", s.Spec, err)
	}

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(s.Spec, s.sweep); err != nil {
		return err
	}
	s.scheduler.Start()

	s.Logger.Info("pending-approval reminder scheduled", zap.String("spec", s.Spec))
	return nil
}

func (s *ReminderService) Stop() {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
}

type pendingGroup struct {
	Key struct {
		TenantID interface{} `bson:"tenant_id"`
		AppCode  string      `bson:"app_code"`
	} `bson:"_id"`
	Count int64 `bson:"count"`
}

func (s *ReminderService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{"system_status": common_models.StatusPending}},
		{"$group": bson.M{
			"_id":   bson.M{"tenant_id": "$tenant_id", "app_code": "$app_code"},
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := s.Documents.Aggregate(ctx, pipeline)
	if err != nil {
		s.Logger.Error("reminder sweep failed", zap.Error(err))
		return
	}
	defer cursor.Close(ctx)

	var groups []pendingGroup
	if err := cursor.All(ctx, &groups); err != nil {
		s.Logger.Error("reminder sweep decode failed", zap.Error(err))
		return
	}

	for _, g := range groups {
		s.Logger.Info("documents awaiting approval",
			zap.Any("tenant_id", g.Key.TenantID),
			zap.String("app_code", g.Key.AppCode),
			zap.Int64("count", g.Count),
		)
	}
}
