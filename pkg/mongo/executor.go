package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
)

// Executor runs aggregation pipelines against a single collection.
type Executor struct {
	log  *slog.Logger
	coll *mongo.Collection
}

// NewExecutor creates an Executor for coll.
func NewExecutor(log *slog.Logger, coll *mongo.Collection) *Executor {
	return &Executor{log: log, coll: coll}
}

// Execute submits the stages verbatim as one aggregation and decodes every
// returned document in engine order. Any failure, including one raised while
// iterating the cursor, is returned as *pipeline.ExecutionError carrying the
// engine's message.
func (e *Executor) Execute(ctx context.Context, p pipeline.Pipeline) (pipeline.ResultSet, error) {
	start := time.Now()

	cursor, err := e.coll.Aggregate(ctx, mongo.Pipeline(p))
	if err != nil {
		return nil, e.fail(start, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, e.fail(start, err)
	}

	duration := time.Since(start)
	AggregateDuration.Observe(duration.Seconds())
	e.log.Debug("mongo: aggregate completed", "collection", e.coll.Name(), "stages", len(p), "documents", len(docs), "duration", duration)

	if docs == nil {
		return pipeline.ResultSet{}, nil
	}
	return pipeline.ResultSet(docs), nil
}

func (e *Executor) fail(start time.Time, err error) error {
	AggregateErrorsTotal.Inc()
	e.log.Info("mongo: aggregate rejected", "collection", e.coll.Name(), "duration", time.Since(start), "error", err)
	return &pipeline.ExecutionError{Message: err.Error(), Err: err}
}
