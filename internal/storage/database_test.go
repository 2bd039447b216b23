package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// newTestMongo connects to the server named by WIKIMATCH_TEST_MONGO_URI and
// uses a throwaway database that is dropped when the test ends.
func newTestMongo(t *testing.T) *MongoStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping live test")
	}
	uri := os.Getenv("WIKIMATCH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WIKIMATCH_TEST_MONGO_URI not set")
	}

	database := "wikimatch_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s, err := NewMongoStorage(uri, database, "matches", testLogger)
	if err != nil {
		t.Fatalf("NewMongoStorage: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.collection.Database().Drop(ctx); err != nil {
			t.Logf("drop %s: %v", database, err)
		}
		s.Close()
	})
	return s
}

func TestMongoStorageUpsertsByMatchID(t *testing.T) {
	s := newTestMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records := sampleRecords()
	if err := s.Store(records); err != nil {
		t.Fatalf("Store: %v", err)
	}

	updated := *records[1]
	updated.Team2 = strPtr("Delta")
	if err := s.Store([]*types.MatchRecord{&updated}); err != nil {
		t.Fatalf("Store update: %v", err)
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if count != 2 {
		t.Errorf("expected upsert to keep 2 documents, got %d", count)
	}

	var got types.MatchRecord
	if err := s.collection.FindOne(ctx, bson.M{"match_id": "id-2"}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Team2 == nil || *got.Team2 != "Delta" {
		t.Errorf("expected team2 Delta after upsert, got %v", got.Team2)
	}
	if got.Score1 != nil {
		t.Errorf("expected null score1, got %d", *got.Score1)
	}
}

func TestMongoStorageStoreEmptyIsNoop(t *testing.T) {
	s := newTestMongo(t)
	if err := s.Store(nil); err != nil {
		t.Fatalf("Store(nil): %v", err)
	}
	count, err := s.collection.CountDocuments(context.Background(), bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty collection, got %d", count)
	}
}
