package main

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cropsight/disease"
	"cropsight/pipeline"
)

type App struct {
	cfg     Config
	log     *slog.Logger
	mongo   *mongo.Client
	db      *mongo.Database
	users   *mongo.Collection
	fields  *mongo.Collection
	reports *mongo.Collection

	scorer     pipeline.Scorer
	analyzer   *pipeline.Analyzer
	detector   *disease.Detector
	treatments *disease.TreatmentTable
}

func newApp(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)

	treatments := disease.DefaultTable()
	if cfg.TreatmentsPath != "" {
		treatments, err = disease.LoadTable(cfg.TreatmentsPath)
		if err != nil {
			return nil, err
		}
	}

	scorer := newScorerClient(cfg.ScorerURI)
	classifier := newClassifierClient(cfg.ClassifierURI)

	app := &App{
		cfg:        cfg,
		log:        log,
		mongo:      client,
		db:         db,
		users:      db.Collection("users"),
		fields:     db.Collection("fields"),
		reports:    db.Collection("reports"),
		scorer:     scorer,
		analyzer:   pipeline.New(scorer, pipeline.WithLogger(log)),
		detector:   disease.NewDetector(classifier, nil, treatments),
		treatments: treatments,
	}

	// Indexes
	if _, err := app.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, err
	}
	if _, err := app.fields.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, err
	}
	if _, err := app.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "fieldId", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }
