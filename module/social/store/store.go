package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linkloop/module/social/model"
	"linkloop/tools/errs"
)

// Store answers friendship and profile lookups from Mongo. Messaging
// consumes it through narrow interfaces; nothing here is mutated by the
// messaging core.
type Store struct {
	users   *mongo.Collection
	friends *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		users:   db.Collection(model.User{}.Collection()),
		friends: db.Collection(model.Friend{}.Collection()),
	}
}

// EnsureIndexes creates the unique pair index; safe to call on every boot.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.friends.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner_user_id", Value: 1},
			{Key: "friend_user_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return errs.Wrap(err, "create friends index")
}

// AreFriends reports whether a may message b. One direction is enough: rows
// are written pairwise and flip status together.
func (s *Store) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	err := s.friends.FindOne(ctx, bson.M{
		"owner_user_id":  userA,
		"friend_user_id": userB,
		"status":         model.StatusAccepted,
		"is_blocked":     false,
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(err, "friendship lookup")
	}
	return true, nil
}

// FriendIDs lists the accepted friends of userID, for presence fan-out.
func (s *Store) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.friends.Find(ctx, bson.M{
		"owner_user_id": userID,
		"status":        model.StatusAccepted,
	}, options.Find().SetProjection(bson.M{"friend_user_id": 1}))
	if err != nil {
		return nil, errs.Wrap(err, "list friends")
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var f model.Friend
		if err := cur.Decode(&f); err != nil {
			return nil, errs.Wrap(err, "decode friend")
		}
		out = append(out, f.FriendUserID)
	}
	return out, cur.Err()
}

// Profile returns the display snapshot for userID. Unknown users come back
// as an empty profile rather than an error; fan-out payloads degrade, the
// message still delivers.
func (s *Store) Profile(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return model.User{UserID: userID}, nil
	}
	if err != nil {
		return model.User{}, errs.Wrap(err, "profile lookup")
	}
	return u, nil
}

// AddFriendship writes both directions as accepted. Used by fixtures and the
// friendship collaborator; kept here so tests and tools share one writer.
func (s *Store) AddFriendship(ctx context.Context, userA, userB string) error {
	now := time.Now()
	for _, pair := range [][2]string{{userA, userB}, {userB, userA}} {
		_, err := s.friends.UpdateOne(ctx,
			bson.M{"owner_user_id": pair[0], "friend_user_id": pair[1]},
			bson.M{
				"$set": bson.M{
					"status":      model.StatusAccepted,
					"is_blocked":  false,
					"update_time": now,
				},
				"$setOnInsert": bson.M{"create_time": now},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return errs.Wrap(err, "upsert friendship")
		}
	}
	return nil
}
