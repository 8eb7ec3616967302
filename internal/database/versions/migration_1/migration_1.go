package migration_1

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Answer struct {
	Sources datatypes.JSON `gorm:"type:jsonb"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Answer{}, "sources"); err != nil {
		return fmt.Errorf("error adding sources column: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&Answer{}, "sources"); err != nil {
		return fmt.Errorf("error dropping sources column: %w", err)
	}
	return nil
}
