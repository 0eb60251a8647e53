package mongodb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"taskboard/internal/domain"
)

func TestDatabaseName(t *testing.T) {
	name, err := databaseName("mongodb://localhost:27017/todos?retryWrites=true")
	require.NoError(t, err)
	assert.Equal(t, "todos", name)

	name, err = databaseName("mongodb://localhost:27017")
	require.NoError(t, err)
	assert.Equal(t, defaultDatabase, name)

	_, err = databaseName("postgres://localhost")
	assert.Error(t, err)
}

func TestIsURI(t *testing.T) {
	assert.True(t, IsURI("mongodb://localhost"))
	assert.True(t, IsURI("mongodb+srv://cluster.example.net/db"))
	assert.False(t, IsURI("sqlite://data/taskboard.db"))
	assert.False(t, IsURI("data/taskboard.db"))
}

func TestDuplicateKey(t *testing.T) {
	dup := func(index string) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: taskboard.users index: " + index + " dup key",
		}}}
	}

	assert.ErrorIs(t, duplicateKey(dup(usersEmailIndex)), domain.ErrEmailTaken)
	assert.ErrorIs(t, duplicateKey(dup(usersUsernameIndex)), domain.ErrUsernameTaken)
	assert.ErrorIs(t, duplicateKey(dup("_id_")), domain.ErrUserExists)
	assert.NoError(t, duplicateKey(errors.New("network timeout")))
}
