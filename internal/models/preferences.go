package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// UserPreferences persists one user's like/dislike document.
type UserPreferences struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"not null;uniqueIndex"`
	Document  string `gorm:"type:text;not null;default:''"`
	UpdatedAt time.Time
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

// Preferences holds the liked and disliked ad ids of a user. An id is never
// in both lists.
type Preferences struct {
	Likes    []uint `json:"likes"`
	Dislikes []uint `json:"dislikes"`
}

func EmptyPreferences() Preferences {
	return Preferences{Likes: []uint{}, Dislikes: []uint{}}
}

// ParsePreferences decodes a stored document. An empty document is an empty
// preference set; anything undecodable is ErrMalformedPreferences.
func ParsePreferences(doc string) (Preferences, error) {
	if doc == "" {
		return EmptyPreferences(), nil
	}
	var p Preferences
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return EmptyPreferences(), fmt.Errorf("%w: %v", ErrMalformedPreferences, err)
	}
	return p.normalized(), nil
}

func (p Preferences) Encode() (string, error) {
	b, err := json.Marshal(p.normalized())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p Preferences) HasLike(id uint) bool    { return contains(p.Likes, id) }
func (p Preferences) HasDislike(id uint) bool { return contains(p.Dislikes, id) }

// Like adds id to likes and drops it from dislikes. It reports whether
// anything changed.
func (p *Preferences) Like(id uint) bool {
	changed := false
	if !contains(p.Likes, id) {
		p.Likes = append(p.Likes, id)
		changed = true
	}
	if contains(p.Dislikes, id) {
		p.Dislikes = remove(p.Dislikes, id)
		changed = true
	}
	return changed
}

// Dislike adds id to dislikes and drops it from likes.
func (p *Preferences) Dislike(id uint) bool {
	changed := false
	if !contains(p.Dislikes, id) {
		p.Dislikes = append(p.Dislikes, id)
		changed = true
	}
	if contains(p.Likes, id) {
		p.Likes = remove(p.Likes, id)
		changed = true
	}
	return changed
}

// normalized drops duplicates and resolves ids present in both lists in
// favour of the dislike, so a hand-edited document still holds the
// invariant.
func (p Preferences) normalized() Preferences {
	out := EmptyPreferences()
	seen := make(map[uint]bool, len(p.Dislikes))
	for _, id := range p.Dislikes {
		if !seen[id] {
			seen[id] = true
			out.Dislikes = append(out.Dislikes, id)
		}
	}
	for _, id := range p.Likes {
		if !seen[id] {
			seen[id] = true
			out.Likes = append(out.Likes, id)
		}
	}
	return out
}

func contains(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
