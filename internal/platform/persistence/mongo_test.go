package persistence

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoDB_Accessors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("database and collection", func(mt *mtest.T) {
		mdb := &MongoDB{logger: slog.Default(), client: mt.Client, database: mt.DB}

		assert.Equal(t, mt.DB, mdb.Database())
		assert.Equal(t, "ledger_entries", mdb.Collection("ledger_entries").Name())
	})
}
