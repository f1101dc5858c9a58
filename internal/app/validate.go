package app

import (
	"math"
	"strings"
	"unicode/utf8"

	"attraction_registry/internal/domain"
)

const (
	maxPlaceIDLen  = 255
	maxUserIDLen   = 128
	maxCategoryLen = 100
	maxTagLen      = 64
	maxTags        = 32
)

type RegisterInput struct {
	ExternalPlaceID string
	UserID          string
	Category        string
	CustomTags      []string
}

// normalize trims fields and de-duplicates tags, keeping first-seen order.
func (in RegisterInput) normalize() RegisterInput {
	out := RegisterInput{
		ExternalPlaceID: strings.TrimSpace(in.ExternalPlaceID),
		UserID:          strings.TrimSpace(in.UserID),
		Category:        strings.TrimSpace(in.Category),
		CustomTags:      make([]string, 0, len(in.CustomTags)),
	}
	seen := make(map[string]struct{}, len(in.CustomTags))
	for _, t := range in.CustomTags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out.CustomTags = append(out.CustomTags, t)
	}
	return out
}

func validateRegistration(in RegisterInput) error {
	if err := validatePlaceID(in.ExternalPlaceID); err != nil {
		return err
	}
	if in.UserID == "" {
		return domain.NewValidationError("userId", "must not be empty")
	}
	if len(in.UserID) > maxUserIDLen {
		return domain.NewValidationError("userId", "must be at most 128 bytes")
	}
	if utf8.RuneCountInString(in.Category) > maxCategoryLen {
		return domain.NewValidationError("category", "must be at most 100 characters")
	}
	if len(in.CustomTags) > maxTags {
		return domain.NewValidationError("customTags", "too many tags")
	}
	for _, t := range in.CustomTags {
		if utf8.RuneCountInString(t) > maxTagLen {
			return domain.NewValidationError("customTags", "tag longer than 64 characters")
		}
	}
	return nil
}

func validatePlaceID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("externalPlaceId", "must not be empty")
	}
	if len(id) > maxPlaceIDLen {
		return domain.NewValidationError("externalPlaceId", "must be at most 255 bytes")
	}
	return nil
}

func validateProximity(center domain.Coordinate, radiusKm float64) error {
	if !center.Valid() {
		return domain.NewValidationError("center", "lat and lng must be numeric and in range")
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return domain.NewValidationError("radius", "must be a non-negative number")
	}
	return nil
}
