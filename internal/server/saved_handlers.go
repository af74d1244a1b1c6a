package server

import (
	"swappi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SaveProfile handles POST /api/saved/:userID
func (s *Server) SaveProfile(c *fiber.Ctx) error {
	savedUserID, err := s.parseID(c, "userID")
	if err != nil {
		return nil
	}
	ownerID := currentUserID(c)

	if savedUserID == ownerID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cannot save your own profile"))
	}

	// The target must have a profile to save
	if _, err := s.profileRepo.GetByUserID(c.Context(), savedUserID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	if err := s.savedRepo.Save(c.Context(), ownerID, savedUserID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"saved": savedUserID,
	})
}

// UnsaveProfile handles DELETE /api/saved/:userID
func (s *Server) UnsaveProfile(c *fiber.Ctx) error {
	savedUserID, err := s.parseID(c, "userID")
	if err != nil {
		return nil
	}
	ownerID := currentUserID(c)

	if err := s.savedRepo.Unsave(c.Context(), ownerID, savedUserID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetSaved handles GET /api/saved
func (s *Server) GetSaved(c *fiber.Ctx) error {
	ownerID := currentUserID(c)

	profiles, err := s.savedRepo.List(c.Context(), ownerID)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"profiles": profiles,
	})
}
