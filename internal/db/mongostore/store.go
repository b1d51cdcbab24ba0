// Package mongostore is the MongoDB backend of the persistent job store.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-matcher/internal/query"
	"github.com/jonathan/job-matcher/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection holds the pre-scored hot jobs.
const DefaultCollection = "hot_jobs"

// jobDocument is the stored shape of a job.
type jobDocument struct {
	ObjectID        primitive.ObjectID `bson:"_id,omitempty"`
	ID              string             `bson:"id,omitempty"`
	Title           string             `bson:"title"`
	Company         string             `bson:"company,omitempty"`
	Location        string             `bson:"location,omitempty"`
	Description     string             `bson:"description,omitempty"`
	Salary          string             `bson:"salary,omitempty"`
	JobType         string             `bson:"jobType,omitempty"`
	Experience      string             `bson:"experience,omitempty"`
	PostedDate      string             `bson:"postedDate,omitempty"`
	URL             string             `bson:"url,omitempty"`
	Platform        string             `bson:"platform,omitempty"`
	SourceType      string             `bson:"sourceType,omitempty"`
	MatchScore      int                `bson:"matchScore,omitempty"`
	SubScores       *types.SubScores   `bson:"subScores,omitempty"`
	MatchAnalysis   string             `bson:"matchAnalysis,omitempty"`
	MatchHighlights []string           `bson:"matchHighlights,omitempty"`
	Summary         string             `bson:"summary,omitempty"`
	DetailedSummary string             `bson:"detailedSummary,omitempty"`
	KeyRequirements []string           `bson:"keyRequirements,omitempty"`
	Active          *bool              `bson:"active,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d *jobDocument) toJob() types.Job {
	id := d.ID
	if id == "" && !d.ObjectID.IsZero() {
		id = d.ObjectID.Hex()
	}
	return types.Job{
		ID:              id,
		Title:           d.Title,
		Company:         d.Company,
		Location:        d.Location,
		Description:     d.Description,
		Salary:          d.Salary,
		JobType:         d.JobType,
		Experience:      d.Experience,
		PostedDate:      d.PostedDate,
		URL:             d.URL,
		Platform:        d.Platform,
		SourceType:      types.SourceType(d.SourceType),
		MatchScore:      d.MatchScore,
		SubScores:       d.SubScores,
		MatchAnalysis:   d.MatchAnalysis,
		MatchHighlights: d.MatchHighlights,
		Summary:         d.Summary,
		DetailedSummary: d.DetailedSummary,
		KeyRequirements: d.KeyRequirements,
	}
}

// Store reads jobs from one MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials uri and returns a store over database.collection.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func regex(pattern string) bson.M {
	return bson.M{"$regex": pattern, "$options": "i"}
}

// compileFilter turns a filter into a query document.
func compileFilter(f query.Filter) bson.M {
	var and bson.A
	if len(f.AnyOf) > 0 {
		or := make(bson.A, 0, len(f.AnyOf))
		for _, c := range f.AnyOf {
			or = append(or, bson.M{c.Field: regex(c.Pattern)})
		}
		and = append(and, bson.M{"$or": or})
	}
	for _, c := range f.AllOf {
		and = append(and, bson.M{c.Field: regex(c.Pattern)})
	}
	if f.ExcludeInactive {
		and = append(and, bson.M{"active": bson.M{"$ne": false}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// Find runs f against the collection, newest first.
func (s *Store) Find(ctx context.Context, f query.Filter, limit int) ([]types.Job, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, compileFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []jobDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}

	jobs := make([]types.Job, 0, len(docs))
	for i := range docs {
		jobs = append(jobs, docs[i].toJob())
	}
	return jobs, nil
}

func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}, {Key: "location", Value: 1}},
			Options: options.Index().SetName("title_location"),
		},
		{
			Keys:    bson.D{{Key: "location", Value: 1}, {Key: "title", Value: 1}},
			Options: options.Index().SetName("location_title"),
		},
		{
			Keys:    bson.D{{Key: "title", Value: "text"}},
			Options: options.Index().SetName("title_text"),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("active_updatedAt"),
		},
	}
}

// EnsureIndexes creates the collection indexes if they are missing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.collection.Indexes().CreateMany(ctx, indexModels()); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
