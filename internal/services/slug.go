package services

import (
	"catalog-service/internal/repository"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxSlugLength = 50

var (
	slugReplacer = regexp.MustCompile("[^a-z0-9]+")
	slugPattern  = regexp.MustCompile("^[a-z0-9]+(?:-[a-z0-9]+)*$")
)

// GenerateSlug creates a URL-friendly slug from a name
func GenerateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = slugReplacer.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// IsValidSlug validates slug format
func IsValidSlug(slug string) bool {
	if slug == "" || len(slug) > 100 {
		return false
	}
	return slugPattern.MatchString(slug)
}

// slugTaken reports whether a slug is already used by a record other than the one being saved
type slugTaken func(ctx context.Context, slug string) (bool, error)

// resolveSlug validates an explicit slug or derives a unique one from the name
func resolveSlug(ctx context.Context, requested *string, name, fallback string, exists slugTaken) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		slug := strings.TrimSpace(*requested)
		if !IsValidSlug(slug) {
			return "", &ValidationError{
				Code:    "INVALID_SLUG",
				Field:   "slug",
				Message: "Slug must contain only lowercase letters, numbers, and hyphens",
			}
		}
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if taken {
			return "", newConflictError("SLUG_TAKEN", "slug %q is already in use", slug)
		}
		return slug, nil
	}

	base := GenerateSlug(name)
	if base == "" {
		base = fallback
	}
	slug := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// slugConflict turns a unique index violation into the conflict the pre-check reports
func slugConflict(err error) error {
	if errors.Is(err, repository.ErrSlugTaken) {
		return newConflictError("SLUG_TAKEN", "slug is already in use")
	}
	return err
}
