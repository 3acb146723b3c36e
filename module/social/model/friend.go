package model

import "time"

// Friendship status values. A pair exchanges messages only in StatusAccepted.
const (
	StatusPending  int32 = 0
	StatusAccepted int32 = 1
	StatusRejected int32 = 2
	StatusRemoved  int32 = 3
)

// Friend is one direction of a friendship; a live friendship stores a row in
// each direction with owner_user_id + friend_user_id as the unique key.
type Friend struct {
	OwnerUserID  string `bson:"owner_user_id"`
	FriendUserID string `bson:"friend_user_id"`

	Status    int32 `bson:"status"`
	IsBlocked bool  `bson:"is_blocked"`

	CreateTime time.Time `bson:"create_time"`
	UpdateTime time.Time `bson:"update_time"`
}

func (Friend) Collection() string { return "friends" }
