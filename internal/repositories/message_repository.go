package repositories

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tidegram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository is the conversation store: durable, ordered persistence
// of direct messages. Sender, receiver, content and created_at are never
// updated after insert; only the read flag changes.
type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetConversation(ctx context.Context, userA, userB uint, limit int64) ([]models.ChatMessage, error)
	GetConversationsFor(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
	MarkMessageRead(ctx context.Context, userID uint, id string) error
	MarkConversationRead(ctx context.Context, userID, otherID uint) (int64, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// EnsureIndexes creates the indexes the conversation queries depend on.
func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// SaveMessage persists a new chat message. The ID and timestamp are assigned
// here, never taken from the client.
func (r *MongoMessageRepository) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	msg.IsRead = false
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// messageReadFilter matches one message only when it is addressed to userID.
func messageReadFilter(userID uint, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "receiver_id": userID}
}

// pairFilter matches messages in either direction between two users.
func pairFilter(userA, userB uint) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userA, "receiver_id": userB},
			bson.M{"sender_id": userB, "receiver_id": userA},
		},
	}
}

// GetConversation returns the most recent `limit` messages between two users,
// sorted ascending by timestamp (chat UIs render oldest-first). The result is
// the same whichever way the pair is passed.
func (r *MongoMessageRepository) GetConversation(ctx context.Context, userA, userB uint, limit int64) ([]models.ChatMessage, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, pairFilter(userA, userB), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// Query is newest-first so the limit keeps the most recent messages;
	// reverse to ascending before returning.
	reverseMessages(messages)
	return messages, nil
}

// reverseMessages flips a newest-first result into ascending order in place.
func reverseMessages(messages []models.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// GetConversationsFor builds the conversation list for a user by scanning all
// messages touching them, newest first, grouping by the other party. Linear
// in the user's message count; acceptable for direct-message volumes and
// isolated here so an aggregation pipeline can replace it without touching
// callers.
func (r *MongoMessageRepository) GetConversationsFor(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userID},
			bson.M{"receiver_id": userID},
		},
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return summarizeConversations(userID, messages), nil
}

// summarizeConversations folds a newest-first message list into one summary
// per other party. The first message seen per party is the latest, so groups
// come out already ordered by recency; the unread count only includes unread
// messages addressed to userID.
func summarizeConversations(userID uint, messages []models.ChatMessage) []models.ConversationSummary {
	summaries := []models.ConversationSummary{}
	index := map[uint]int{}

	for _, msg := range messages {
		other := msg.SenderID
		if other == userID {
			other = msg.ReceiverID
		}

		i, seen := index[other]
		if !seen {
			summaries = append(summaries, models.ConversationSummary{
				OtherUserID:          other,
				LastMessagePreview:   messagePreview(&msg),
				LastMessageTimestamp: msg.CreatedAt,
			})
			i = len(summaries) - 1
			index[other] = i
		}
		if msg.ReceiverID == userID && !msg.IsRead {
			summaries[i].UnreadCount++
		}
	}
	return summaries
}

const previewLength = 80

func messagePreview(msg *models.ChatMessage) string {
	if msg.Content == "" && msg.AttachmentURL != "" {
		return "[" + msg.AttachmentType + "]"
	}
	// Truncate on a rune boundary; a byte cut could split multi-byte text.
	if utf8.RuneCountInString(msg.Content) > previewLength {
		return string([]rune(msg.Content)[:previewLength])
	}
	return msg.Content
}

// MarkMessageRead flips one message's read flag. Scoped to the receiver so
// users cannot mark each other's messages; marking an already-read message is
// a no-op, but an unknown ID or a message not addressed to userID is an
// error.
func (r *MongoMessageRepository) MarkMessageRead(ctx context.Context, userID uint, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid message ID format: %w", err)
	}

	res, err := r.collection.UpdateOne(ctx, messageReadFilter(userID, objID), bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("message not found")
	}
	return nil
}

// MarkConversationRead marks every unread message from otherID addressed to
// userID as read and reports how many were flipped.
func (r *MongoMessageRepository) MarkConversationRead(ctx context.Context, userID, otherID uint) (int64, error) {
	filter := bson.M{"sender_id": otherID, "receiver_id": userID, "is_read": false}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
