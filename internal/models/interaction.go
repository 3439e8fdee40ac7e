package models

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies a user or a catalog item. Stores hand out their native keys
// (ObjectID hex, uuid, ...) in string form; comparison is plain equality.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty or blank.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// ItemType is the kind of catalog entity an interaction points at.
type ItemType string

const (
	ItemTypeMovie ItemType = "movie"
	ItemTypeMusic ItemType = "music"
)

// ParseItemType normalizes "Movie", "movie", " MUSIC " and so on.
func ParseItemType(raw string) (ItemType, error) {
	switch ItemType(strings.ToLower(strings.TrimSpace(raw))) {
	case ItemTypeMovie:
		return ItemTypeMovie, nil
	case ItemTypeMusic:
		return ItemTypeMusic, nil
	}
	return "", fmt.Errorf("unknown item type %q", raw)
}

func (t ItemType) Valid() bool {
	return t == ItemTypeMovie || t == ItemTypeMusic
}

// InteractionKind is the behavioral event recorded for a (user, item) pair.
type InteractionKind string

const (
	KindView     InteractionKind = "view"
	KindLike     InteractionKind = "like"
	KindRating   InteractionKind = "rating"
	KindFavorite InteractionKind = "favorite"
)

// PositiveKinds are the interaction kinds that count as a positive signal.
var PositiveKinds = []InteractionKind{KindLike, KindFavorite}

func ParseInteractionKind(raw string) (InteractionKind, error) {
	k := InteractionKind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case KindView, KindLike, KindRating, KindFavorite:
		return k, nil
	}
	return "", fmt.Errorf("unknown interaction type %q", raw)
}

func (k InteractionKind) IsPositive() bool {
	return k == KindLike || k == KindFavorite
}

// InteractionDetails carries the optional payload of an interaction.
// A nil field means the value was not supplied.
type InteractionDetails struct {
	Rating   *int    `json:"rating,omitempty"`
	Mood     *string `json:"mood,omitempty"`
	Duration *int    `json:"duration,omitempty"`
}

// Interaction is one event in the append-only interaction log. Several
// interactions may exist for the same user/item pair.
type Interaction struct {
	ID       ID              `json:"_id"`
	UserID   ID              `json:"user"`
	ItemID   ID              `json:"itemId"`
	ItemType ItemType        `json:"itemType"`
	Kind     InteractionKind `json:"interactionType"`
	InteractionDetails
	CreatedAt time.Time `json:"createdAt"`

	// Item is populated only when the query asked for the catalog join and
	// the referenced entity still exists.
	Item CatalogItem `json:"item,omitempty"`
}

// UserItem is the projection of a positive interaction used to build the
// user-item matrix.
type UserItem struct {
	UserID ID
	ItemID ID
}

// InteractionQuery selects one user's interactions, newest first.
type InteractionQuery struct {
	UserID   ID
	ItemType ItemType
	Kinds    []InteractionKind
	// Limit <= 0 means no limit.
	Limit    int
	WithItem bool
}

// PerUserStats summarizes how many positive interactions each user has.
type PerUserStats struct {
	TotalUsers int
	Avg        float64
	Min        int
	Max        int
}

// Favorite is the current-state membership of an item in a user's list,
// unique per (user, item, item type).
type Favorite struct {
	ID        ID        `json:"_id"`
	UserID    ID        `json:"userId"`
	ItemID    ID        `json:"itemId"`
	ItemType  ItemType  `json:"itemType"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserLikes is the denormalized liked-items list kept on a user record.
type UserLikes struct {
	UserID      ID   `json:"userId"`
	LikedMovies []ID `json:"likedMovies"`
	LikedMusic  []ID `json:"likedMusic"`
}
