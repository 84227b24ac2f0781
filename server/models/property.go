package models

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

const (
	PROPERTY_ACTIVE  = "active"
	PROPERTY_PENDING = "pending"
	PROPERTY_SOLD    = "sold"

	// Default for address parts the source data leaves blank.
	UNKNOWN_ADDRESS_PART = "Unknown"
)

type Property struct {
	BaseModel
	WorkspaceID    uint   `json:"workspace_id" gorm:"not null;index"`
	Address        string `json:"address" validate:"required" gorm:"not null"`
	City           string `json:"city" gorm:"not null"`
	State          string `json:"state" gorm:"not null"`
	Zip            string `json:"zip" gorm:"not null"`
	MailingAddress string `json:"mailing_address,omitempty"`
	Status         string `json:"status" gorm:"default:active"`
	Tags           string `json:"-"`
}

type TagCount struct {
	Tag           string `json:"tag"`
	PropertyCount int    `json:"property_count"`
}

// TagList splits the stored comma-separated tag column into a list.
func (property *Property) TagList() []string {
	if strings.TrimSpace(property.Tags) == "" {
		return []string{}
	}

	tags := []string{}
	for _, tag := range strings.Split(property.Tags, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	return tags
}

func (property *Property) SetTagList(tags []string) {
	property.Tags = strings.Join(tags, ",")
}

// FindPropertyByAddress looks up a property by exact address fields
// within a workspace. Returns nil when no property matches.
func FindPropertyByAddress(workspaceID uint, address, city, state, zip string) (*Property, error) {
	property := Property{}

	err := db.Scopes(workspaceScope(workspaceID)).
		Where("address = ? AND city = ? AND state = ? AND zip = ?", address, city, state, zip).
		First(&property).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &property, nil
}

func CreateProperty(tx *gorm.DB, property *Property) error {
	return tx.Create(property).Error
}

func UpdateProperty(tx *gorm.DB, propertyID uint, data map[string]interface{}) error {
	return tx.Model(&Property{}).Where("id = ?", propertyID).Updates(data).Error
}

func FindProperty(workspaceID uint, id interface{}) (*Property, error) {
	property := Property{}
	err := db.Scopes(workspaceScope(workspaceID)).First(&property, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &property, nil
}

// FetchProperties lists a workspace's properties, optionally filtered by
// status and/or tag.
func FetchProperties(workspaceID uint, status, tag string, page int) ([]Property, *Paging, error) {
	var total int64
	properties := []Property{}

	query := db.Model(&Property{}).Scopes(workspaceScope(workspaceID))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, nil, err
	}

	err = query.Scopes(paginate(page, MIN_PAGE_SIZE)).Order("address").Find(&properties).Error
	if err != nil {
		return nil, nil, err
	}

	// Tag filtering happens off the comma-separated column, so it's done
	// in memory on the fetched page.
	if tag != "" {
		filtered := properties[:0]
		for _, property := range properties {
			for _, propertyTag := range property.TagList() {
				if propertyTag == tag {
					filtered = append(filtered, property)
					break
				}
			}
		}
		properties = filtered
	}

	return properties, newPaging(int64(page), MIN_PAGE_SIZE, total), nil
}

// TagCounts tallies how many properties carry each tag in a workspace,
// most used first.
func TagCounts(workspaceID uint) ([]TagCount, error) {
	properties := []Property{}

	err := db.Select("tags").Scopes(workspaceScope(workspaceID)).Find(&properties).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, property := range properties {
		for _, tag := range property.TagList() {
			counts[tag]++
		}
	}

	tagCounts := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tagCounts = append(tagCounts, TagCount{Tag: tag, PropertyCount: count})
	}

	sort.Slice(tagCounts, func(i, j int) bool {
		if tagCounts[i].PropertyCount != tagCounts[j].PropertyCount {
			return tagCounts[i].PropertyCount > tagCounts[j].PropertyCount
		}
		return tagCounts[i].Tag < tagCounts[j].Tag
	})

	return tagCounts, nil
}

func PropertyCountsByStatus(workspaceID uint) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	rows := []statusCount{}
	err := db.Model(&Property{}).Scopes(workspaceScope(workspaceID)).
		Select("status, count(*) as count").Group("status").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
