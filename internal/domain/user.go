package domain

import "time"

// FreeTrialCoins is granted once when a LINE profile is first synced.
const FreeTrialCoins = 2

// DownloadSpendThresholdTHB gates the standard-sticker download permission.
const DownloadSpendThresholdTHB = 30.0

// User represents a LINE-authenticated account with a coin balance.
type User struct {
	ID              string
	DisplayName     string
	PictureURL      string
	CoinBalance     int
	TotalSpentTHB   float64
	IsFreeTrialUsed bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanDownload reports whether the user has spent enough to export their set.
func (u User) CanDownload() bool {
	return u.TotalSpentTHB >= DownloadSpendThresholdTHB
}
