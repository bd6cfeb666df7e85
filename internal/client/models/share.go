package models

import "time"

// ShareLink is a time-bound public link to a file.
type ShareLink struct {
	ShareID        string      `json:"shareId"`
	FileID         ID          `json:"fileId"`
	FileName       string      `json:"fileName"`
	ExpirationTime UnixSeconds `json:"expirationTime"`
	CreatedAt      string      `json:"createdAt,omitempty"`

	// Preview marks links synthesized locally while the listing endpoint is
	// unavailable. They do not exist on the backend.
	Preview bool `json:"-"`
}

// ExpiresAt returns the zero time when the link has no expiry.
func (l ShareLink) ExpiresAt() time.Time {
	if l.ExpirationTime == 0 {
		return time.Time{}
	}
	return time.Unix(int64(l.ExpirationTime), 0)
}

func (l ShareLink) Expired(now time.Time) bool {
	return l.ExpirationTime != 0 && int64(l.ExpirationTime) < now.Unix()
}
