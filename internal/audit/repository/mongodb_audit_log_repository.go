package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	apperrors "github.com/allisson/careportal/internal/errors"
)

// AuditLogCollection is the MongoDB collection holding the audit trail.
const AuditLogCollection = "audit_logs"

// auditLogDocument is the stored shape of an AuditLog. Metadata keeps its JSON encoding
// so the bytes covered by the signature survive the round trip unchanged.
type auditLogDocument struct {
	ID            string    `bson:"_id"`
	Actor         string    `bson:"actor"`
	Action        string    `bson:"action"`
	RecordType    string    `bson:"record_type"`
	RecordID      *string   `bson:"record_id"`
	NetworkOrigin string    `bson:"network_origin"`
	UserAgent     string    `bson:"user_agent"`
	Outcome       string    `bson:"outcome"`
	Metadata      *string   `bson:"metadata"`
	Signature     []byte    `bson:"signature,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

// MongoAuditLogRepository implements AuditLog persistence for MongoDB. Records are only
// ever inserted, which suits an append-only collection.
type MongoAuditLogRepository struct {
	collection *mongo.Collection
	accessor   *cryptoService.FieldAccessor
}

// EnsureIndexes creates the created_at index used by listings and verification.
func (m *MongoAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log indexes")
	}
	return nil
}

// Create inserts a new AuditLog document.
func (m *MongoAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	row, metadataJSON, err := sealAuditLog(m.accessor, auditLog)
	if err != nil {
		return err
	}

	if _, err := m.collection.InsertOne(ctx, toAuditLogDocument(row, metadataJSON)); err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

// List retrieves audit logs ordered by created_at descending with optional inclusive
// created_at bounds.
func (m *MongoAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := m.collection.Find(ctx, listFilterDocument(filter), opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}

	var documents []auditLogDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode audit logs")
	}

	auditLogs := make([]*auditDomain.AuditLog, 0, len(documents))
	for i := range documents {
		auditLog, err := fromAuditLogDocument(m.accessor, &documents[i])
		if err != nil {
			return nil, err
		}
		auditLogs = append(auditLogs, auditLog)
	}

	return auditLogs, nil
}

// NewMongoAuditLogRepository creates a new MongoDB AuditLog repository on database.
func NewMongoAuditLogRepository(
	database *mongo.Database,
	accessor *cryptoService.FieldAccessor,
) *MongoAuditLogRepository {
	return &MongoAuditLogRepository{
		collection: database.Collection(AuditLogCollection),
		accessor:   accessor,
	}
}

func listFilterDocument(filter auditDomain.ListFilter) bson.D {
	createdAt := bson.D{}
	if filter.CreatedAtFrom != nil {
		createdAt = append(createdAt, bson.E{Key: "$gte", Value: filter.CreatedAtFrom.UTC()})
	}
	if filter.CreatedAtTo != nil {
		createdAt = append(createdAt, bson.E{Key: "$lte", Value: filter.CreatedAtTo.UTC()})
	}

	if len(createdAt) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "created_at", Value: createdAt}}
}

func toAuditLogDocument(row *auditDomain.AuditLog, metadataJSON []byte) *auditLogDocument {
	doc := &auditLogDocument{
		ID:            row.ID.String(),
		Actor:         row.Actor,
		Action:        row.Action,
		RecordType:    row.RecordType,
		RecordID:      row.RecordID,
		NetworkOrigin: row.NetworkOrigin,
		UserAgent:     row.UserAgent,
		Outcome:       string(row.Outcome),
		Signature:     row.Signature,
		CreatedAt:     row.CreatedAt.UTC(),
	}
	if metadataJSON != nil {
		metadata := string(metadataJSON)
		doc.Metadata = &metadata
	}
	return doc
}

func fromAuditLogDocument(
	accessor *cryptoService.FieldAccessor,
	doc *auditLogDocument,
) (*auditDomain.AuditLog, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit log id")
	}

	auditLog := &auditDomain.AuditLog{
		ID:            id,
		Actor:         doc.Actor,
		Action:        doc.Action,
		RecordType:    doc.RecordType,
		RecordID:      doc.RecordID,
		NetworkOrigin: doc.NetworkOrigin,
		UserAgent:     doc.UserAgent,
		Outcome:       auditDomain.Outcome(doc.Outcome),
		Signature:     doc.Signature,
		CreatedAt:     doc.CreatedAt.UTC(),
	}

	var metadataJSON []byte
	if doc.Metadata != nil {
		metadataJSON = []byte(*doc.Metadata)
	}

	if err := openAuditLog(accessor, auditLog, metadataJSON); err != nil {
		return nil, err
	}
	return auditLog, nil
}
