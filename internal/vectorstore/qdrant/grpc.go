package qdrant

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

var _ domain.VectorStore = (*GRPCStorage)(nil)

// GRPCConfig configures the gRPC client.
type GRPCConfig struct {
	// Host is the Qdrant server hostname. Default: "localhost".
	Host string

	// Port is the gRPC port, not the REST one. Default: 6334.
	Port int

	UseTLS bool
	APIKey string

	// MaxMessageSize bounds gRPC messages in both directions. Default: 50MB.
	MaxMessageSize int

	// RequestTimeout bounds each call. Default: 30s.
	RequestTimeout time.Duration
}

func (c *GRPCConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// GRPCStorage implements domain.VectorStore with Qdrant's official Go client.
// Every call is attempted exactly once.
type GRPCStorage struct {
	client  *qdrant.Client
	timeout time.Duration
}

// NewGRPCStorage creates a gRPC-backed store. The connection is established
// on first use.
func NewGRPCStorage(cfg GRPCConfig) (*GRPCStorage, error) {
	cfg.applyDefaults()
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: invalid qdrant grpc port %d", domain.ErrInvalidConfig, cfg.Port)
	}

	qc := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	}
	if !cfg.UseTLS {
		qc.GrpcOptions = append(qc.GrpcOptions, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	client, err := qdrant.NewClient(qc)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &GRPCStorage{client: client, timeout: cfg.RequestTimeout}, nil
}

// CollectionExists treats codes.NotFound as absent; any other error is returned.
func (s *GRPCStorage) CollectionExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return false, nil
		}
		return false, grpcError("get collection", err)
	}
	return info != nil, nil
}

// CreateCollection creates a collection of dims-sized vectors.
func (s *GRPCStorage) CreateCollection(ctx context.Context, name string, dims int, distance string) error {
	d, err := parseDistance(distance)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: d,
		}),
	})
	if err != nil {
		return grpcError("create collection", err)
	}
	return nil
}

// Upsert writes records and waits for the write to be applied.
func (s *GRPCStorage) Upsert(ctx context.Context, collection string, records []domain.IndexRecord) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: toPayload(r.Payload),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return grpcError("upsert", err)
	}
	return nil
}

// Search runs a nearest-neighbour query, optionally restricted to one document.
func (s *GRPCStorage) Search(ctx context.Context, collection string, req domain.SearchRequest) ([]domain.QueryResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}
	q := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(req.Vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         docFilter(req.DocID),
	}
	if req.HNSWEf > 0 {
		q.Params = &qdrant.SearchParams{HnswEf: qdrant.PtrOf(uint64(req.HNSWEf))}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	points, err := s.client.Query(ctx, q)
	if err != nil {
		return nil, grpcError("search", err)
	}
	results := make([]domain.QueryResult, len(points))
	for i, p := range points {
		results[i] = domain.QueryResult{
			ID:      extractPointID(p.GetId()),
			Score:   float64(p.GetScore()),
			Payload: fromPayload(p.GetPayload()),
		}
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *GRPCStorage) Count(ctx context.Context, collection string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, grpcError("count", err)
	}
	return int(n), nil
}

// Close closes the client connection.
func (s *GRPCStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func grpcError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("qdrant %s: %w", op, err)
	}
	return &domain.StatusError{Service: "qdrant", Op: op, Status: st.Code().String(), Body: st.Message()}
}

func parseDistance(name string) (qdrant.Distance, error) {
	if name == "" {
		return qdrant.Distance_Cosine, nil
	}
	v, ok := qdrant.Distance_value[name]
	if !ok || qdrant.Distance(v) == qdrant.Distance_UnknownDistance {
		return 0, fmt.Errorf("%w: unknown distance %q", domain.ErrInvalidConfig, name)
	}
	return qdrant.Distance(v), nil
}

func docFilter(docID string) *qdrant.Filter {
	if docID == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   "doc_id",
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: docID}},
				},
			},
		}},
	}
}

func toPayload(m map[string]any) map[string]*qdrant.Value {
	if m == nil {
		return nil
	}
	out := make(map[string]*qdrant.Value, len(m))
	for k, v := range m {
		out[k] = toValue(v)
	}
	return out
}

func toValue(v any) *qdrant.Value {
	switch val := v.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	case map[string]any:
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: toPayload(val)}}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
	}
}

func fromPayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_StructValue:
		return fromPayload(val.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := val.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromValue(item)
		}
		return out
	default:
		return nil
	}
}

func extractPointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
