// Package auth handles BlogHub accounts: registration, login, password resets and
// the JWT middleware that puts the viewer's identity into the request context.
// This file defines the User entity shared with the users package.
package auth

import "time"

// User is a BlogHub account as stored in the users table.
// The following/followers pair is symmetric across users and is only written
// by transactions that update both sides.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // never exposed
	ProfilePicture string    `json:"profilePicture"`
	Following      []string  `json:"following"`
	Followers      []string  `json:"followers"`
	LikedPosts     []string  `json:"liked_posts"`
	SavedPosts     []string  `json:"saved_posts"`
	CreatedAt      time.Time `json:"created_at"`
}
