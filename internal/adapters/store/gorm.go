package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type roomModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Code        string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (roomModel) TableName() string { return "rooms" }

type messageModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	RoomID    uint64    `gorm:"index;not null"`
	UserID    string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:varchar(16);not null;default:message"`
	Timestamp time.Time `gorm:"not null"`
}

func (messageModel) TableName() string { return "messages" }

type roomUserModel struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	RoomID   uint64    `gorm:"not null;index:uniq_room_user,unique,priority:1"`
	UserID   string    `gorm:"type:varchar(255);not null;index:uniq_room_user,unique,priority:2"`
	JoinedAt time.Time `gorm:"not null"`
}

func (roomUserModel) TableName() string { return "room_users" }

func (m roomModel) toDomain() domain.Room {
	return domain.Room{
		ID:          domain.RoomID(m.ID),
		Code:        domain.RoomCode(m.Code),
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func (m messageModel) toDomain() domain.Message {
	return domain.Message{
		ID:        domain.MessageID(m.ID),
		RoomID:    domain.RoomID(m.RoomID),
		UserID:    domain.UserID(m.UserID),
		Content:   m.Content,
		Type:      domain.MessageType(m.Type),
		Timestamp: m.Timestamp,
	}
}

// Gorm is the relational store. Room codes are unique at the schema level,
// which is what keeps concurrent auto-creates down to one row.
type Gorm struct {
	db *gorm.DB
}

// OpenGorm connects through dial and migrates the schema.
func OpenGorm(dial gorm.Dialector) (*Gorm, error) {
	zl := log.Logger.With().Str("module", "store.gorm").Logger()
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.New(&zl, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel(zl.GetLevel()),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	return NewGorm(db)
}

// NewGorm wraps an already opened connection.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&roomModel{}, &messageModel{}, &roomUserModel{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func gormLevel(l zerolog.Level) gormlogger.LogLevel {
	switch {
	case l <= zerolog.DebugLevel:
		return gormlogger.Info
	case l <= zerolog.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func (g *Gorm) findRoom(ctx context.Context, code domain.RoomCode) (*roomModel, error) {
	var m roomModel
	err := g.db.WithContext(ctx).Where("code = ?", string(code)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (g *Gorm) GetRoomByCode(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	m, err := g.findRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	r := m.toDomain()
	return &r, nil
}

func (g *Gorm) CreateRoom(ctx context.Context, p domain.RoomParams) (*domain.Room, error) {
	m := roomModel{
		Code:        string(p.Code),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   time.Now().UTC(),
	}
	err := g.db.WithContext(ctx).Create(&m).Error
	if err == nil {
		r := m.toDomain()
		return &r, nil
	}
	// A failed insert with the code now present lost a race or hit a duplicate.
	if _, getErr := g.findRoom(ctx, p.Code); getErr == nil {
		return nil, domain.ErrRoomExists
	}
	return nil, err
}

func (g *Gorm) ResolveOrCreateRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	m, err := g.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	r := m.toDomain()
	return &r, nil
}

func (g *Gorm) resolve(ctx context.Context, code domain.RoomCode) (*roomModel, error) {
	m, err := g.findRoom(ctx, code)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, err
	}
	if _, err := g.CreateRoom(ctx, domain.AutoRoom(code)); err != nil && !errors.Is(err, domain.ErrRoomExists) {
		return nil, err
	}
	return g.findRoom(ctx, code)
}

func (g *Gorm) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rows []roomModel
	if err := g.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// GetMessagesByRoomCode returns history in append (id ASC) order.
func (g *Gorm) GetMessagesByRoomCode(ctx context.Context, code domain.RoomCode) ([]domain.Message, error) {
	room, err := g.findRoom(ctx, code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return []domain.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []messageModel
	if err := g.db.WithContext(ctx).
		Where("room_id = ?", room.ID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (g *Gorm) CreateMessage(ctx context.Context, code domain.RoomCode, p domain.MessageParams) (*domain.Message, error) {
	room, err := g.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = domain.MessageTypeChat
	}
	m := messageModel{
		RoomID:    room.ID,
		UserID:    string(p.UserID),
		Content:   p.Content,
		Type:      string(p.Type),
		Timestamp: time.Now().UTC(),
	}
	if err := g.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	msg := m.toDomain()
	return &msg, nil
}

func (g *Gorm) AddUserToRoom(ctx context.Context, code domain.RoomCode, user domain.UserID) error {
	room, err := g.resolve(ctx, code)
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roomUserModel{RoomID: room.ID, UserID: string(user), JoinedAt: time.Now().UTC()}).Error
}

func (g *Gorm) RemoveUserFromRoom(ctx context.Context, code domain.RoomCode, user domain.UserID) error {
	room, err := g.findRoom(ctx, code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", room.ID, string(user)).
		Delete(&roomUserModel{}).Error
}

func (g *Gorm) GetUsersInRoomByCode(ctx context.Context, code domain.RoomCode) ([]domain.Membership, error) {
	room, err := g.findRoom(ctx, code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return []domain.Membership{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []roomUserModel
	if err := g.db.WithContext(ctx).
		Where("room_id = ?", room.ID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Membership, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.Membership{
			RoomID: domain.RoomID(m.RoomID),
			UserID: domain.UserID(m.UserID),
			Joined: m.JoinedAt,
		})
	}
	return out, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
