package server

import (
	"swappi/internal/cache"
	"swappi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetExplore handles GET /api/explore. Results are cached per page; the feed
// is public data, so one cache entry serves every user.
func (s *Server) GetExplore(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	profiles := []models.Profile{}
	err := cache.Aside(c.Context(), cache.ExploreKey(p.Limit, p.Offset), &profiles, cache.ExploreTTL, func() error {
		var dbErr error
		profiles, dbErr = s.profileRepo.List(c.Context(), p.Limit, p.Offset)
		return dbErr
	})
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	// The viewer's own card is not shown in their feed
	userID := currentUserID(c)
	filtered := make([]models.Profile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.UserID != userID {
			filtered = append(filtered, profile)
		}
	}

	return c.JSON(fiber.Map{
		"profiles": filtered,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}
