package db

import (
	"errors"

	"gorm.io/gorm"

	"rank-it/internal/topics"
)

// LoadResult reports what LoadTopicLibrary changed.
type LoadResult struct {
	Inserted int
	// Frozen lists topics that already back a round and so were left
	// untouched even though the seed carried new items for them.
	Frozen []string
}

// LoadTopicLibrary upserts seeded topics and their items. Existing items keep
// their position; new ones are appended after the current last position.
// Topics referenced by any round never gain items.
func LoadTopicLibrary(conn *gorm.DB, seeds []topics.Seed) (LoadResult, error) {
	var result LoadResult
	if conn == nil {
		return result, errors.New("db connection is nil")
	}
	err := conn.Transaction(func(tx *gorm.DB) error {
		for _, seed := range seeds {
			topic := Topic{Name: seed.Name}
			if err := tx.Where(Topic{Name: seed.Name}).FirstOrCreate(&topic).Error; err != nil {
				return err
			}
			var existing []TopicItem
			if err := tx.Where("topic_id = ?", topic.ID).Order("position").Find(&existing).Error; err != nil {
				return err
			}
			names := make(map[string]struct{}, len(existing))
			last := 0
			for _, item := range existing {
				names[item.Name] = struct{}{}
				if item.Position > last {
					last = item.Position
				}
			}
			var fresh []string
			for _, name := range seed.Items {
				if _, ok := names[name]; ok {
					continue
				}
				names[name] = struct{}{}
				fresh = append(fresh, name)
			}
			if len(fresh) == 0 {
				continue
			}
			var rounds int64
			if err := tx.Model(&Round{}).Where("topic_id = ?", topic.ID).Count(&rounds).Error; err != nil {
				return err
			}
			if rounds > 0 {
				result.Frozen = append(result.Frozen, topic.Name)
				continue
			}
			for _, name := range fresh {
				last++
				item := TopicItem{TopicID: topic.ID, Name: name, Position: last}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				result.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return LoadResult{}, err
	}
	return result, nil
}
