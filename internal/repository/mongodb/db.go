package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"taskboard/internal/domain"
)

const (
	defaultDatabase = "taskboard"
	connectTimeout  = 10 * time.Second

	usersCollection = "users"
	todosCollection = "todos"

	usersEmailIndex    = "users_email_unique"
	usersUsernameIndex = "users_username_unique"
	todosOwnerIndex    = "todos_user_created"
)

// IsURI reports whether url addresses a MongoDB deployment.
func IsURI(url string) bool {
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}

// Open connects to the deployment at uri and returns the client with the
// database named in the uri path (or "taskboard" when none is given).
// The caller owns the client and must Disconnect it.
func Open(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	name, err := databaseName(uri)
	if err != nil {
		return nil, nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, client.Database(name), nil
}

func databaseName(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("parse mongodb uri: %w", err)
	}
	if cs.Database == "" {
		return defaultDatabase, nil
	}
	return cs.Database, nil
}

// Health adapts a client to repository.Pinger.
type Health struct {
	Client *mongo.Client
}

func (h Health) Ping(ctx context.Context) error {
	return h.Client.Ping(ctx, readpref.Primary())
}

func duplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, usersEmailIndex):
		return domain.ErrEmailTaken
	case strings.Contains(msg, usersUsernameIndex):
		return domain.ErrUsernameTaken
	default:
		return domain.ErrUserExists
	}
}
