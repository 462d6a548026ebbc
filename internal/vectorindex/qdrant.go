package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"inboxia/internal/config"
	"inboxia/internal/models"
	"inboxia/internal/provider"

	"github.com/qdrant/go-client/qdrant"
)

const qdrantCollection = "message_chunks"

// QdrantIndex mirrors embedded chunks into a Qdrant collection. Message
// metadata rides along as point payload so filters run server-side.
type QdrantIndex struct {
	client *qdrant.Client
}

// NewQdrantIndex connects to Qdrant and ensures the collection exists
func NewQdrantIndex(cfg *config.Config) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.QdrantHost,
		Port: cfg.QdrantPort,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s:%d: %w", cfg.QdrantHost, cfg.QdrantPort, err)
	}

	idx := &QdrantIndex{client: client}
	if err := idx.ensureCollection(context.Background()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (x *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := x.client.CollectionExists(ctx, qdrantCollection)
	if err != nil {
		return fmt.Errorf("failed to check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: qdrantCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(provider.EmbeddingDimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}
	return nil
}

// pointID packs (message, chunk) into one stable point id so re-upserts
// overwrite in place.
func pointID(messageID, chunkIndex int) uint64 {
	return uint64(messageID)<<20 | uint64(chunkIndex)
}

// ReplaceMessage drops the message's points and upserts the new chunk set
func (x *QdrantIndex) ReplaceMessage(ctx context.Context, msg *models.Message, model string, contents []string, vectors [][]float32) error {
	if len(contents) != len(vectors) {
		return fmt.Errorf("content/vector count mismatch: %d vs %d", len(contents), len(vectors))
	}

	// Drop stale points first; stable point ids overwrite the rest.
	if err := x.DeleteMessage(ctx, msg.ID); err != nil {
		return err
	}
	if len(contents) == 0 {
		return nil
	}

	toList := make([]interface{}, len(msg.To))
	for i, addr := range msg.To {
		toList[i] = addr
	}

	points := make([]*qdrant.PointStruct, len(contents))
	for i, content := range contents {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(pointID(msg.ID, i)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"message_id":  msg.ID,
				"account_id":  msg.AccountID,
				"thread_id":   msg.ThreadID,
				"chunk_index": i,
				"model":       model,
				"content":     content,
				"from_email":  msg.FromEmail,
				"subject":     msg.Subject,
				"to":          toList,
				"sent_at":     msg.SentAt.Unix(),
			}),
		}
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: qdrantCollection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert qdrant points: %w", err)
	}
	return nil
}

// Search runs a filtered similarity query against the collection
func (x *QdrantIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	must := []*qdrant.Condition{
		qdrant.NewMatchInt("account_id", int64(q.AccountID)),
	}
	if q.ThreadID != nil {
		must = append(must, qdrant.NewMatchInt("thread_id", int64(*q.ThreadID)))
	}
	if q.From != "" {
		must = append(must, qdrant.NewMatchText("from_email", q.From))
	}
	if q.Subject != "" {
		must = append(must, qdrant.NewMatchText("subject", q.Subject))
	}
	if q.To != "" {
		must = append(must, qdrant.NewMatch("to", q.To))
	}
	if q.Before != nil || q.After != nil {
		r := &qdrant.Range{}
		if q.Before != nil {
			r.Lt = qdrant.PtrOf(float64(q.Before.Unix()))
		}
		if q.After != nil {
			r.Gt = qdrant.PtrOf(float64(q.After.Unix()))
		}
		must = append(must, qdrant.NewRange("sent_at", r))
	}

	points, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: qdrantCollection,
		Query:          qdrant.NewQuery(q.Vector...),
		Filter:         &qdrant.Filter{Must: must},
		Limit:          qdrant.PtrOf(uint64(q.TopK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]Hit, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		hits = append(hits, Hit{
			MessageID:  int(payload["message_id"].GetIntegerValue()),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
			Content:    payload["content"].GetStringValue(),
			// Cosine collections score by similarity; convert to distance
			Distance: 1 - float64(point.GetScore()),
		})
	}

	// Qdrant orders by score only; enforce the deterministic tie-break
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		if hits[i].MessageID != hits[j].MessageID {
			return hits[i].MessageID < hits[j].MessageID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
	return hits, nil
}

// DeleteMessage removes every point belonging to a message
func (x *QdrantIndex) DeleteMessage(ctx context.Context, messageID int) error {
	_, err := x.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: qdrantCollection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchInt("message_id", int64(messageID)),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete qdrant points: %w", err)
	}
	return nil
}
