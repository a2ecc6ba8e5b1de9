package domain

import "time"

// CategorySkipSentinel is the reserved remote category id meaning "the user
// explicitly chose not to categorize this code". It must never be copied onto
// a transaction.
const CategorySkipSentinel = "0"

// UnknownCategoryName seeds a mapping when the feed supplies a code without a
// readable name.
const UnknownCategoryName = "Unknown Category"

// CategoryMapping bridges a wallet classification code to a remote budgeting
// category. Exactly one row exists per distinct code ever seen; rows are
// created lazily the first time a code appears in a fetched batch.
type CategoryMapping struct {
	Code      string `gorm:"primaryKey;column:code" json:"code"`
	LocalName string `json:"local_name"`

	// RemoteCategoryID stays empty until the user maps the code;
	// CategorySkipSentinel marks an explicit opt-out.
	RemoteCategoryID   string `json:"remote_category_id"`
	RemoteCategoryName string `json:"remote_category_name"`

	CreatedAt time.Time `json:"created_at"`
}

// IsSkip reports whether the user explicitly opted this code out of
// categorization.
func (m CategoryMapping) IsSkip() bool {
	return m.RemoteCategoryID == CategorySkipSentinel
}

// IsMapped reports whether the mapping can be applied to a transaction:
// a remote category is assigned and it is not the skip sentinel.
func (m CategoryMapping) IsMapped() bool {
	return m.RemoteCategoryID != "" && !m.IsSkip()
}
