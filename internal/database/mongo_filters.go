package database

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yishak-cs/cinetune/internal/models"
)

// toKey converts an ID to its stored form: an ObjectID when the ID is a
// valid hex ObjectID, the plain string otherwise.
func toKey(id models.ID) interface{} {
	if oid, err := primitive.ObjectIDFromHex(string(id)); err == nil {
		return oid
	}
	return string(id)
}

func toKeys(ids []models.ID) bson.A {
	out := make(bson.A, 0, len(ids))
	for _, id := range ids {
		out = append(out, toKey(id))
	}
	return out
}

// fromKey is the inverse of toKey.
func fromKey(v interface{}) models.ID {
	switch k := v.(type) {
	case primitive.ObjectID:
		return models.ID(k.Hex())
	case string:
		return models.ID(k)
	}
	return ""
}

// itemTypeVariants lists the spellings an item type may be stored under.
// Older documents capitalize the first letter.
func itemTypeVariants(t models.ItemType) bson.A {
	s := string(t)
	if s == "" {
		return bson.A{}
	}
	return bson.A{s, strings.ToUpper(s[:1]) + s[1:]}
}

// favoriteItemType is the capitalized spelling the favorites collection
// validates against.
func favoriteItemType(t models.ItemType) string {
	if v := itemTypeVariants(t); len(v) == 2 {
		return v[1].(string)
	}
	return ""
}

// favoriteFilter matches one favorite. userId is a plain string in the
// favorites collection, never an ObjectID.
func favoriteFilter(userID, itemID models.ID, itemType models.ItemType) bson.M {
	return bson.M{
		"userId":   string(userID),
		"itemId":   toKey(itemID),
		"itemType": bson.M{"$in": itemTypeVariants(itemType)},
	}
}

func userFavoritesFilter(userID models.ID, itemType models.ItemType) bson.M {
	filter := bson.M{"userId": string(userID)}
	if itemType != "" {
		filter["itemType"] = bson.M{"$in": itemTypeVariants(itemType)}
	}
	return filter
}

func kindValues(kinds []models.InteractionKind) bson.A {
	out := make(bson.A, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

// interactionFilter matches interactions of itemType and any of kinds.
// Empty kinds match every kind.
func interactionFilter(itemType models.ItemType, kinds []models.InteractionKind) bson.M {
	filter := bson.M{}
	if itemType != "" {
		filter["itemType"] = bson.M{"$in": itemTypeVariants(itemType)}
	}
	if len(kinds) > 0 {
		filter["interactionType"] = bson.M{"$in": kindValues(kinds)}
	}
	return filter
}

func userInteractionFilter(q models.InteractionQuery) bson.M {
	filter := interactionFilter(q.ItemType, q.Kinds)
	filter["user"] = toKey(q.UserID)
	return filter
}

func stringsOrEmpty(s []string) bson.A {
	out := make(bson.A, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}

func movieFilter(q models.MovieQuery) bson.M {
	filter := bson.M{}
	if len(q.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": toKeys(q.ExcludeIDs)}
	}
	if q.Similar != nil {
		filter["$or"] = bson.A{
			bson.M{"genre": bson.M{"$in": stringsOrEmpty(q.Similar.Genres)}},
			bson.M{"mood": bson.M{"$in": stringsOrEmpty(q.Similar.Moods)}},
		}
	}
	if q.Mood != "" {
		filter["mood"] = q.Mood
	}
	return filter
}

func musicFilter(q models.MusicQuery) bson.M {
	filter := bson.M{}
	if len(q.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": toKeys(q.ExcludeIDs)}
	}
	if q.Similar != nil {
		filter["$or"] = bson.A{
			bson.M{"genre": bson.M{"$in": stringsOrEmpty(q.Similar.Genres)}},
			bson.M{"artist": bson.M{"$in": stringsOrEmpty(q.Similar.Artists)}},
		}
	}
	if q.Energy != nil {
		filter["energy"] = bson.M{"$gte": q.Energy.Min, "$lte": q.Energy.Max}
	}
	if q.Valence != nil {
		filter["valence"] = bson.M{"$gte": q.Valence.Min, "$lte": q.Valence.Max}
	}
	return filter
}

var (
	movieSort = bson.D{{Key: "popularity", Value: -1}, {Key: "rating", Value: -1}, {Key: "_id", Value: 1}}
	musicSort = bson.D{{Key: "popularity", Value: -1}, {Key: "_id", Value: 1}}
	// newest first
	interactionSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
)

// perUserPipeline groups matching interactions per user, then reduces the
// per-user counts to one document {totalUsers, avg, min, max}.
func perUserPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$user",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalUsers": bson.M{"$sum": 1},
			"avg":        bson.M{"$avg": "$count"},
			"min":        bson.M{"$min": "$count"},
			"max":        bson.M{"$max": "$count"},
		}}},
	}
}

// likedListField is the user document field holding liked ids of itemType.
func likedListField(itemType models.ItemType) string {
	if itemType == models.ItemTypeMusic {
		return "likedMusic"
	}
	return "likedMovies"
}
