package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

type taskDocument struct {
	ID          string    `bson:"_id"`
	User        string    `bson:"user"`
	Text        string    `bson:"text"`
	Description string    `bson:"description"`
	Priority    string    `bson:"priority"`
	IsComplete  bool      `bson:"isComplete"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d taskDocument) toDomain() domain.Task {
	return domain.Task{
		ID:          d.ID,
		OwnerID:     d.User,
		Text:        d.Text,
		Description: d.Description,
		Priority:    domain.TaskPriority(d.Priority),
		IsComplete:  d.IsComplete,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type TaskRepository struct {
	todos *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &TaskRepository{todos: db.Collection(todosCollection)}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	_, err := r.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName(todosOwnerIndex),
	})
	if err != nil {
		return fmt.Errorf("create todos index: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	_, err := r.todos.InsertOne(ctx, taskDocument{
		ID:          task.ID,
		User:        task.OwnerID,
		Text:        task.Text,
		Description: task.Description,
		Priority:    string(task.Priority),
		IsComplete:  task.IsComplete,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	var doc taskDocument
	if err := r.todos.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	task := doc.toDomain()
	return &task, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.todos.Find(ctx, bson.M{"user": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}

	tasks := make([]domain.Task, len(docs))
	for i := range docs {
		tasks[i] = docs[i].toDomain()
	}
	return tasks, nil
}

func (r *TaskRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := r.todos.CountDocuments(ctx, bson.M{"user": ownerID})
	if err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return int(n), nil
}

// Update persists the mutable fields; the owner field is never rewritten.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	res, err := r.todos.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{"$set": bson.M{
		"text":        task.Text,
		"description": task.Description,
		"priority":    string(task.Priority),
		"isComplete":  task.IsComplete,
		"updatedAt":   task.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.todos.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
