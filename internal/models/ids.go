package models

import "github.com/google/uuid"

// NewID returns a fresh primary key
func NewID() string {
	return uuid.NewString()
}

// ActorRef turns an employee ID into a nullable reference; no actor is stored as NULL
func ActorRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
