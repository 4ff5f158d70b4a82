package models

import "time"

// KVValue holds plain string values and counters for the SQL key-value backend.
type KVValue struct {
	Key       string    `gorm:"column:store_key;primaryKey;size:255"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `json:"-"`
}

func (KVValue) TableName() string { return "kv_values" }

// KVHashField is one field of a hash.
type KVHashField struct {
	Key   string `gorm:"column:store_key;primaryKey;size:255"`
	Field string `gorm:"primaryKey;size:255"`
	Value string `gorm:"not null"`
}

func (KVHashField) TableName() string { return "kv_hash_fields" }

// KVSetMember is one member of a set.
type KVSetMember struct {
	Key    string `gorm:"column:store_key;primaryKey;size:255"`
	Member string `gorm:"primaryKey;size:255"`
}

func (KVSetMember) TableName() string { return "kv_set_members" }

// KVSortedMember is one member of a sorted set.
type KVSortedMember struct {
	Key    string  `gorm:"column:store_key;primaryKey;size:255"`
	Member string  `gorm:"primaryKey;size:255"`
	Score  float64 `gorm:"not null;index"`
}

func (KVSortedMember) TableName() string { return "kv_sorted_members" }

// KVTables lists every table the SQL backend migrates.
func KVTables() []interface{} {
	return []interface{}{&KVValue{}, &KVHashField{}, &KVSetMember{}, &KVSortedMember{}}
}
