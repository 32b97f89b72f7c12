package index

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"document-query-bot/models"
	"document-query-bot/utils"
)

const metaCollection = "index_meta"
const metaID = "current"

// indexMeta points at the collection holding the current generation of the
// index. Rebuild writes a fresh generation collection and flips this
// pointer in one update, so readers see either the old or the new batch.
// The previous generation is kept until the next rebuild so a reader that
// decoded the pointer just before a flip can still finish its scan.
type indexMeta struct {
	ID         string    `bson:"_id"`
	Generation string    `bson:"generation"`
	Previous   string    `bson:"previous,omitempty"`
	Names      []string  `bson:"names"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// chunkDoc is the stored form of one Entry. Chunk text is compressed for
// storage and decompressed on read.
type chunkDoc struct {
	ChunkID     string    `bson:"chunk_id"`
	Order       int       `bson:"order"`
	Source      string    `bson:"source"`
	Page        int       `bson:"page,omitempty"`
	Text        []byte    `bson:"text"`
	Compression string    `bson:"compression"`
	Vector      []float32 `bson:"vector"`
}

// MongoStore keeps the index in MongoDB so it survives restarts. Search
// still ranks client-side with the same cosine ordering as MemoryStore.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func generationCollection(generation string) string {
	return "chunk_index_" + generation
}

func (s *MongoStore) Rebuild(ctx context.Context, entries []Entry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	generation := uuid.NewString()
	staging := s.db.Collection(generationCollection(generation))

	if len(entries) > 0 {
		docs := make([]interface{}, 0, len(entries))
		for _, e := range entries {
			compressed, algorithm, err := utils.CompressText(e.Chunk.Text)
			if err != nil {
				return fmt.Errorf("compress chunk %s: %w", e.Chunk.ChunkID, err)
			}
			docs = append(docs, chunkDoc{
				ChunkID:     e.Chunk.ChunkID,
				Order:       e.Chunk.Order,
				Source:      e.Chunk.Source,
				Page:        e.Chunk.Page,
				Text:        compressed,
				Compression: string(algorithm),
				Vector:      e.Vector,
			})
		}
		if _, err := staging.InsertMany(ctx, docs); err != nil {
			// Old generation stays current; drop the partial staging data.
			_ = staging.Drop(ctx)
			return fmt.Errorf("stage index generation: %w", err)
		}
	}

	meta := s.db.Collection(metaCollection)

	var previous indexMeta
	err := meta.FindOne(ctx, bson.M{"_id": metaID}).Decode(&previous)
	hadPrevious := err == nil
	if err != nil && err != mongo.ErrNoDocuments {
		_ = staging.Drop(ctx)
		return fmt.Errorf("read index meta: %w", err)
	}

	_, err = meta.UpdateOne(ctx,
		bson.M{"_id": metaID},
		bson.M{"$set": bson.M{
			"generation": generation,
			"previous":   previous.Generation,
			"names":      distinctNames(entries),
			"updated_at": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		_ = staging.Drop(ctx)
		return fmt.Errorf("swap index generation: %w", err)
	}

	// Drop only the generation two rebuilds back. A reader holding the
	// just-replaced pointer can still finish scanning that collection.
	if hadPrevious && previous.Previous != "" {
		_ = s.db.Collection(generationCollection(previous.Previous)).Drop(ctx)
	}
	return nil
}

func (s *MongoStore) Search(ctx context.Context, vector []float32, k int) ([]models.Chunk, error) {
	entries, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}
	return rank(entries, vector, k), nil
}

func (s *MongoStore) DocumentNames(ctx context.Context) ([]string, error) {
	var meta indexMeta
	err := s.db.Collection(metaCollection).FindOne(ctx, bson.M{"_id": metaID}).Decode(&meta)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index meta: %w", err)
	}
	return meta.Names, nil
}

// load reads the current generation into memory, in insertion order. A
// rebuild flipping the pointer mid-read is detected by re-checking the meta
// after the scan; the read is retried against the new generation.
func (s *MongoStore) load(ctx context.Context) ([]Entry, []string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var meta indexMeta
		err := s.db.Collection(metaCollection).FindOne(ctx, bson.M{"_id": metaID}).Decode(&meta)
		if err == mongo.ErrNoDocuments {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read index meta: %w", err)
		}

		entries, err := s.loadGeneration(ctx, meta.Generation)
		if err != nil {
			return nil, nil, err
		}

		var check indexMeta
		err = s.db.Collection(metaCollection).FindOne(ctx, bson.M{"_id": metaID}).Decode(&check)
		if err == mongo.ErrNoDocuments {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read index meta: %w", err)
		}
		if check.Generation == meta.Generation {
			return entries, meta.Names, nil
		}
	}
	return nil, nil, fmt.Errorf("index rebuilt repeatedly during read")
}

// loadGeneration scans one generation collection in insertion order.
func (s *MongoStore) loadGeneration(ctx context.Context, generation string) ([]Entry, error) {
	cursor, err := s.db.Collection(generationCollection(generation)).Find(ctx,
		bson.M{}, options.Find().SetSort(bson.M{"order": 1}))
	if err != nil {
		return nil, fmt.Errorf("load index generation: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	for cursor.Next(ctx) {
		var doc chunkDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		text, err := utils.DecompressText(doc.Text, utils.CompressionAlgorithm(doc.Compression))
		if err != nil {
			return nil, fmt.Errorf("decompress chunk %s: %w", doc.ChunkID, err)
		}
		entries = append(entries, Entry{
			Vector: doc.Vector,
			Chunk: models.Chunk{
				ChunkID: doc.ChunkID,
				Text:    text,
				Source:  doc.Source,
				Page:    doc.Page,
				Order:   doc.Order,
			},
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return entries, nil
}
