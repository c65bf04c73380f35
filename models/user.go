package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type GlobalRole string

const (
	RoleAdmin          GlobalRole = "Admin"
	RoleProjectManager GlobalRole = "Project Manager"
	RoleMember         GlobalRole = "Member"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Role     GlobalRole         `bson:"role" json:"role"`
}
