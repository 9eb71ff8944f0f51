package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lalfaro-lab/sms-platform/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Key layout of the document backend. Records live as JSON documents
// under their id key; sorted sets provide creation-time and name
// ordering, and a hash of phone numbers backs the contact uniqueness
// constraint.
const (
	messageKeyPrefix = "message:"
	contactKeyPrefix = "contact:"
	webhookKeyPrefix = "webhook:"

	messagesByTimeKey = "messages:by_time"
	contactsByNameKey = "contacts:by_name"
	contactPhonesKey  = "contacts:phones"
	webhooksByTimeKey = "webhooks:by_time"
)

// RedisStore is the document Store backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore verifies connectivity and wraps the given client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func messagesIndexKey(direction string) string {
	if direction == "" {
		return messagesByTimeKey
	}
	return messagesByTimeKey + ":" + direction
}

// InsertMessage stores the message document and indexes it by creation time.
func (s *RedisStore) InsertMessage(ctx context.Context, msg *models.Message) (string, error) {
	if msg == nil {
		return "", errors.New("message cannot be nil")
	}
	if msg.PhoneNumber == "" || msg.Body == "" {
		return "", errors.New("phone number and message body are required")
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = models.StatusPending
	}
	if msg.Direction == "" {
		msg.Direction = models.DirectionSent
	}
	msg.ID = uuid.New().String()

	doc, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	score := float64(msg.CreatedAt.UnixNano())
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, messageKeyPrefix+msg.ID, doc, 0)
		pipe.ZAdd(ctx, messagesByTimeKey, redis.Z{Score: score, Member: msg.ID})
		pipe.ZAdd(ctx, messagesIndexKey(msg.Direction), redis.Z{Score: score, Member: msg.ID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}

	return msg.ID, nil
}

// ListMessages returns messages newest first, optionally filtered by direction.
func (s *RedisStore) ListMessages(ctx context.Context, direction string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	ids, err := s.client.ZRevRange(ctx, messagesIndexKey(direction), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read message index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = messageKeyPrefix + id
	}

	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	var messages []*models.Message
	for _, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			// Index entry without a document; skip rather than fail the listing.
			continue
		}
		var m models.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, &m)
	}

	return messages, nil
}

// CountMessages counts messages matching the given filters.
func (s *RedisStore) CountMessages(ctx context.Context, direction string, todayOnly bool) (int, error) {
	key := messagesIndexKey(direction)

	if !todayOnly {
		n, err := s.client.ZCard(ctx, key).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to count messages: %w", err)
		}
		return int(n), nil
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.client.ZCount(ctx, key, strconv.FormatInt(midnight.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return int(n), nil
}

func contactNameMember(name, id string) string {
	return name + "\x00" + id
}

// InsertContact creates a contact. HSETNX on the phone-number hash is
// the atomic insert-if-absent primitive; there is no window between
// the existence check and the insert.
func (s *RedisStore) InsertContact(ctx context.Context, name, phoneNumber string) (*models.Contact, error) {
	if name == "" || phoneNumber == "" {
		return nil, errors.New("name and phone number are required")
	}

	contact := &models.Contact{
		ID:          uuid.New().String(),
		Name:        name,
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now().UTC(),
	}

	claimed, err := s.client.HSetNX(ctx, contactPhonesKey, phoneNumber, contact.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim phone number: %w", err)
	}
	if !claimed {
		return nil, ErrDuplicateContact
	}

	doc, err := json.Marshal(contact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, contactKeyPrefix+contact.ID, doc, 0)
		pipe.ZAdd(ctx, contactsByNameKey, redis.Z{Score: 0, Member: contactNameMember(name, contact.ID)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}

	return contact, nil
}

// ListContacts returns all contacts ordered by name.
func (s *RedisStore) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	members, err := s.client.ZRangeByLex(ctx, contactsByNameKey, &redis.ZRangeBy{Min: "-", Max: "+"}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read contact index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(members))
	for _, member := range members {
		_, id, found := strings.Cut(member, "\x00")
		if !found {
			continue
		}
		keys = append(keys, contactKeyPrefix+id)
	}

	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	var contacts []*models.Contact
	for _, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			continue
		}
		var c models.Contact
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contact: %w", err)
		}
		contacts = append(contacts, &c)
	}

	return contacts, nil
}

// CountContacts returns the total number of contacts.
func (s *RedisStore) CountContacts(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, contactPhonesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return int(n), nil
}

// DeleteContact removes the contact document and its index entries.
func (s *RedisStore) DeleteContact(ctx context.Context, id string) error {
	raw, err := s.client.Get(ctx, contactKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return ErrContactNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}

	var contact models.Contact
	if err := json.Unmarshal([]byte(raw), &contact); err != nil {
		return fmt.Errorf("failed to unmarshal contact: %w", err)
	}

	var delCmd *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		delCmd = pipe.Del(ctx, contactKeyPrefix+id)
		pipe.HDel(ctx, contactPhonesKey, contact.PhoneNumber)
		pipe.ZRem(ctx, contactsByNameKey, contactNameMember(contact.Name, contact.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	// A concurrent delete may have removed the document between the
	// read and the pipeline.
	if delCmd.Val() == 0 {
		return ErrContactNotFound
	}

	return nil
}

// InsertWebhookEvent appends a raw gateway callback.
func (s *RedisStore) InsertWebhookEvent(ctx context.Context, event string, payload json.RawMessage) (string, error) {
	if event == "" {
		return "", errors.New("event is required")
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	evt := &models.WebhookEvent{
		ID:         uuid.New().String(),
		Event:      event,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}

	doc, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, webhookKeyPrefix+evt.ID, doc, 0)
		pipe.ZAdd(ctx, webhooksByTimeKey, redis.Z{Score: float64(evt.ReceivedAt.UnixNano()), Member: evt.ID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert webhook event: %w", err)
	}

	return evt.ID, nil
}
