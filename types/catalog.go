package types

import "github.com/shopspring/decimal"

// Category is a node of the service catalog tree.
type Category struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Services   []Service  `json:"services"`
}

// Service is a purchasable service offered to the client.
type Service struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Picture     string          `json:"picture,omitempty"`
	Price       decimal.Decimal `json:"price"`
}
