package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreationTime time.Time

	Conversations []Conversation `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

type Conversation struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId    uuid.UUID `gorm:"type:uuid;index;not null"`
	Title        sql.NullString
	CreationTime time.Time

	Questions []Question `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

type Question struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_question_turn"`
	Index          int       `gorm:"column:turn_index;not null;uniqueIndex:idx_question_turn"`
	Content        string
	TokenCount     int
	Metadata       datatypes.JSON `gorm:"type:jsonb"`
	CreationTime   time.Time

	Answer *Answer `gorm:"foreignKey:QuestionId;constraint:OnDelete:CASCADE"`
}

type Answer struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuestionId   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Content      string
	TokenCount   int
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreationTime time.Time
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&Session{}, &Conversation{}, &Question{}, &Answer{})
}
