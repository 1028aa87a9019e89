package domain

import (
	"time"
)

// Platform identifies a social platform a wallet can link and verify.
type Platform string

// Supported social platforms.
const (
	PlatformTwitter  Platform = "twitter"
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
)

// ValidPlatforms returns the set of supported platforms.
func ValidPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformTelegram, PlatformDiscord}
}

// IsValidPlatform checks whether the given platform is supported.
func IsValidPlatform(p Platform) bool {
	for _, v := range ValidPlatforms() {
		if v == p {
			return true
		}
	}
	return false
}

// Verification status constants for a linked social account.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationFailed   = "failed"
	VerificationExpired  = "expired"
)

// SocialAccount is a wallet's linked account on a social platform, as
// reported by the social signal provider.
type SocialAccount struct {
	Platform Platform `json:"platform"`
	Username string   `json:"username"`
	Status   string   `json:"status"`
	// Metric is the platform-specific audience size: followers on twitter,
	// members on telegram and discord.
	Metric int `json:"metric"`
	// IsPlatformVerified reflects the platform's own verification badge.
	IsPlatformVerified bool      `json:"is_platform_verified"`
	VerifiedAt         time.Time `json:"verified_at"`
	// ExpiresAt bounds how long the verification is trusted. Zero means the
	// verification does not expire.
	ExpiresAt time.Time `json:"expires_at"`
}

// CurrentlyVerified reports whether the account counts as verified at the
// given instant. An account past its expiry is treated as not verified.
func (a *SocialAccount) CurrentlyVerified(now time.Time) bool {
	if a.Status != VerificationVerified {
		return false
	}
	if a.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(a.ExpiresAt)
}
