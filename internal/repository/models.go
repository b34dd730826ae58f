package repository

import "time"

// Apartment statuses
const (
	ApartmentStatusNew    = "new"
	ApartmentStatusActive = "active"
	ApartmentStatusDone   = "done"
	ApartmentStatusError  = "error"
)

// ApartmentUrl statuses
const (
	URLStatusNew        = "new"
	URLStatusInProgress = "in_progress"
	URLStatusDone       = "done"
	URLStatusError      = "error"
)

// Apartment is an admitted, normalized listing. Required columns are
// non-nullable in the schema; a record is only constructed after the
// completeness check in the admission pipeline.
type Apartment struct {
	ID           int64      `json:"id"`
	OwnerName    *string    `json:"owner_name,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Price        int        `json:"price"`
	Floor        int        `json:"floor"`
	TotalStoreys int        `json:"total_storeys"`
	Area         float64    `json:"area"`
	Rooms        int        `json:"rooms"`
	IsFurnished  bool       `json:"is_furnished"`
	District     string     `json:"district"`
	PhoneNumber  *string    `json:"phone_number,omitempty"`
	BuildingType *string    `json:"building_type,omitempty"`
	Repair       *string    `json:"repair,omitempty"`
	MapLink      *string    `json:"map_link,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	Images       []ApartmentImage `json:"images,omitempty"`
}

// ApartmentImage is owned by its Apartment and cascade-deletes with it.
// OriginalURL is unique system-wide and drives duplicate-ad detection.
type ApartmentImage struct {
	ID             int64     `json:"id"`
	ApartmentID    int64     `json:"apartment_id"`
	OriginalURL    string    `json:"original_url"`
	LocalPath      string    `json:"local_path"`
	TelegramFileID *string   `json:"telegram_file_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ApartmentURL is the long-lived origin of one listing across retries.
type ApartmentURL struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	ApartmentID *int64 `json:"apartment_id,omitempty"`
}

// BlockedContact is a phone number flagged as a repeat/broker poster.
type BlockedContact struct {
	ID          int64   `json:"id"`
	AgentName   *string `json:"agent_name,omitempty"`
	PhoneNumber string  `json:"phone_number"`
}

// ApartmentFilter holds the search filters exposed to operators
type ApartmentFilter struct {
	District string `json:"district,omitempty"`
	Rooms    int    `json:"rooms,omitempty"`
	PriceMin int    `json:"price_min,omitempty"`
	PriceMax int    `json:"price_max,omitempty"`
}

// PaginationParams holds paging parameters for searches
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ApartmentSearchResult is a page of matches plus paging metadata
type ApartmentSearchResult struct {
	Apartments  []Apartment `json:"apartments"`
	TotalItems  int64       `json:"total_items"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
	PageSize    int         `json:"page_size"`
}
