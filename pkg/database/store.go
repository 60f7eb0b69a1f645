package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// LoadRoster returns the stored roster in its saved order
func LoadRoster(db *gorm.DB) ([]models.Person, error) {
	var rows []RosterMember
	if err := db.Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	roster := make([]models.Person, 0, len(rows))
	for _, r := range rows {
		key, err := models.ParseRecencyKey(r.LastDuty)
		if err != nil {
			return nil, fmt.Errorf("roster member %s: %w", r.ID, err)
		}
		roster = append(roster, models.Person{ID: r.ID, LastDuty: key, LastSlot: r.LastSlot})
	}
	return roster, nil
}

// SaveRoster replaces the stored roster with the given one
func SaveRoster(db *gorm.DB, roster []models.Person) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&RosterMember{}).Error; err != nil {
			return err
		}
		if len(roster) == 0 {
			return nil
		}
		rows := make([]RosterMember, len(roster))
		for i, p := range roster {
			rows[i] = RosterMember{
				ID:       p.ID,
				Position: i,
				LastDuty: p.LastDuty.String(),
				LastSlot: p.LastSlot,
			}
		}
		return tx.Create(&rows).Error
	})
}

// ErrKeyRevoked is returned for keys an admin has revoked
var ErrKeyRevoked = errors.New("api key revoked")

// ResolveAPIKey returns the record of a verified key, registering keys never seen
// before under the given owner. Revoked keys stay revoked.
func ResolveAPIKey(db *gorm.DB, key, owner, preview string) (*APIKey, error) {
	var apiKey APIKey
	err := db.Unscoped().Where(&APIKey{Key: key}).First(&apiKey).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		apiKey = APIKey{Key: key, Name: owner, KeyPreview: preview, RateLimit: 10000}
		if err := db.Create(&apiKey).Error; err != nil {
			return nil, err
		}
		return &apiKey, nil
	case err != nil:
		return nil, err
	case apiKey.DeletedAt.Valid:
		return nil, ErrKeyRevoked
	}
	return &apiKey, nil
}

// RecordUsage adds one request to the key's daily usage using a single upsert
func RecordUsage(db *gorm.DB, keyID uint, slots, personnel int) error {
	today := time.Now().Format("2006-01-02")

	// OnConflict is supported by both Postgres and SQLite
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", 1),
			"total_slots":     gorm.Expr("total_slots + ?", slots),
			"total_personnel": gorm.Expr("total_personnel + ?", personnel),
		}),
	}).Create(&APIUsage{
		KeyID:          keyID,
		Date:           today,
		RequestCount:   1,
		TotalSlots:     slots,
		TotalPersonnel: personnel,
	}).Error
}

// RecentUsage returns up to 30 days of usage for a key, newest first
func RecentUsage(db *gorm.DB, keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}
