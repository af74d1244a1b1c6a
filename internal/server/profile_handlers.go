package server

import (
	"io"
	"mime/multipart"
	"strings"

	"swappi/internal/models"
	"swappi/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitProfile handles POST /api/profile/submit. It accepts a multipart form
// with the profile fields, up to six photos, and a single video or audio
// intro, then runs the full submission workflow.
func (s *Server) SubmitProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart form"))
	}

	input := service.SubmissionInput{
		Name:         formValue(form, "name"),
		Email:        formValue(form, "email"),
		Vibe:         formValue(form, "vibe"),
		Mood:         formValue(form, "mood"),
		Note:         formValue(form, "note"),
		SkillsKnown:  formList(form, "skills_known"),
		SkillsWanted: formList(form, "skills_wanted"),
		Intro:        service.NoIntroMedia{},
	}

	for i, header := range form.File["photos"] {
		if i >= models.MaxProfilePhotos {
			break
		}
		asset, readErr := readAsset(header)
		if readErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read photo upload"))
		}
		input.Photos = append(input.Photos, asset)
	}

	if headers := form.File["intro_video"]; len(headers) > 0 {
		asset, readErr := readAsset(headers[0])
		if readErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read video upload"))
		}
		input.Intro = service.VideoIntro{Asset: asset}
	} else if headers := form.File["intro_audio"]; len(headers) > 0 {
		asset, readErr := readAsset(headers[0])
		if readErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read audio upload"))
		}
		input.Intro = service.AudioIntro{Asset: asset}
	}

	workflow := s.newWorkflow()
	result, err := workflow.Submit(c.UserContext(), userID, input)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	failedSlots := make([]int, 0, len(result.PhotoFailures))
	for _, f := range result.PhotoFailures {
		failedSlots = append(failedSlots, f.Slot)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"profile":       result.Profile,
		"failed_photos": failedSlots,
	})
}

// GetMyProfile handles GET /api/profile/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	profile, err := s.profileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(profile)
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// formList accepts either repeated form fields or one comma-separated value.
func formList(form *multipart.Form, key string) []string {
	vals := form.Value[key]
	if len(vals) == 1 && strings.Contains(vals[0], ",") {
		vals = strings.Split(vals[0], ",")
	}

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func readAsset(header *multipart.FileHeader) (service.Asset, error) {
	f, err := header.Open()
	if err != nil {
		return service.Asset{}, err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return service.Asset{}, err
	}

	return service.Asset{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
