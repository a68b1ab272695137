// Package types holds the wire-level data model of the kontur-client API.
package types

// Client is an authenticated end user of the platform.
type Client struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     string  `json:"phone"`
	Email     *string `json:"email"`
	Card      string  `json:"card"`
}
