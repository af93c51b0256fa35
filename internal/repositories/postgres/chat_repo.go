package postgres

import (
	"context"
	"errors"

	"github.com/seekhq/seek/internal/models"
	"github.com/seekhq/seek/internal/utils"
	"gorm.io/gorm"
)

type ChatRepo interface {
	// CreateChatIfAbsent inserts the chat; a duplicate-key failure is a
	// benign race with a concurrent first request and is swallowed.
	CreateChatIfAbsent(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	ListChats(ctx context.Context) ([]models.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error

	// GetMessageByMessageID resolves a caller-supplied message id within
	// one chat; an id belonging to another chat is not found here.
	GetMessageByMessageID(ctx context.Context, chatID, messageID string) (*models.Message, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	// DeleteMessagesAfter removes every message of the chat whose
	// insertion ordinal is strictly greater than the given one.
	DeleteMessagesAfter(ctx context.Context, chatID string, ordinal uint) error
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepo{db: db}
}

func (r *chatRepo) CreateChatIfAbsent(ctx context.Context, chat *models.Chat) error {
	err := r.db.WithContext(ctx).Create(chat).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *chatRepo) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var row models.Chat
	err := r.db.WithContext(ctx).Where("id = ?", chatID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *chatRepo) ListChats(ctx context.Context) ([]models.Chat, error) {
	var rows []models.Chat
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *chatRepo) DeleteChat(ctx context.Context, chatID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", chatID).Delete(&models.Chat{}).Error
	})
}

func (r *chatRepo) GetMessageByMessageID(ctx context.Context, chatID, messageID string) (*models.Message, error) {
	var row models.Message
	err := r.db.WithContext(ctx).Where("chat_id = ? AND message_id = ?", chatID, messageID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *chatRepo) InsertMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepo) DeleteMessagesAfter(ctx context.Context, chatID string, ordinal uint) error {
	return r.db.WithContext(ctx).
		Where("chat_id = ? AND id > ?", chatID, ordinal).
		Delete(&models.Message{}).Error
}

func (r *chatRepo) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
