package models

import (
	"time"

	"github.com/lib/pq"
)

// RoomType categorises teaching spaces.
type RoomType string

const (
	RoomTypeLecture  RoomType = "lecture"
	RoomTypeLab      RoomType = "lab"
	RoomTypeTutorial RoomType = "tutorial"
)

// Room represents a bookable teaching space. Immutable input to the engine.
type Room struct {
	ID         string         `db:"id" json:"id"`
	Code       string         `db:"code" json:"code"`
	Name       string         `db:"name" json:"name"`
	Building   string         `db:"building" json:"building"`
	Capacity   int            `db:"capacity" json:"capacity"`
	Type       RoomType       `db:"type" json:"type"`
	Facilities pq.StringArray `db:"facilities" json:"facilities"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Building  string
	Type      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
