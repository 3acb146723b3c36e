package model

import "time"

// User is the profile document owned by the account subsystem. Messaging
// reads it for denormalized display data only.
type User struct {
	UserID      string    `bson:"user_id"`
	DisplayName string    `bson:"display_name"`
	AvatarURL   string    `bson:"avatar_url"`
	Locked      bool      `bson:"locked"` // private profile flag
	CreateTime  time.Time `bson:"create_time"`
	UpdateTime  time.Time `bson:"update_time"`
}

func (User) Collection() string { return "users" }
