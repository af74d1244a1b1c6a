package service

import (
	"context"
	"sync"
	"time"

	"swappi/internal/models"
	"swappi/internal/observability"
	"swappi/internal/repository"
)

// SubmissionState is the workflow's current phase.
type SubmissionState string

const (
	StateIdle           SubmissionState = "idle"
	StateValidating     SubmissionState = "validating"
	StateUploadingMedia SubmissionState = "uploading_media"
	StatePersisting     SubmissionState = "persisting"
	StateSucceeded      SubmissionState = "succeeded"
	StateFailed         SubmissionState = "failed"
)

const (
	// Uploads and the persistence write are user-interactive one-shots, so
	// they get a bounded deadline and no automatic retry.
	defaultUploadTimeout  = 60 * time.Second
	defaultPersistTimeout = 10 * time.Second
)

// IntroMedia is the user's intro attachment choice. Exactly one variant holds
// at a time; "both video and audio" and "required but neither" are
// unrepresentable.
type IntroMedia interface {
	introMedia()
}

// NoIntroMedia means the user attached nothing.
type NoIntroMedia struct{}

// VideoIntro carries a recorded video intro.
type VideoIntro struct {
	Asset Asset
}

// AudioIntro carries a recorded audio intro.
type AudioIntro struct {
	Asset Asset
}

func (NoIntroMedia) introMedia() {}
func (VideoIntro) introMedia()   {}
func (AudioIntro) introMedia()   {}

// SubmissionInput is a snapshot of the profile form at submit time. The
// workflow only reads it; Photos are ordered by their grid slot.
type SubmissionInput struct {
	Name         string
	Email        string
	Vibe         string
	Mood         string
	SkillsKnown  []string
	SkillsWanted []string
	Note         string
	Photos       []Asset
	Intro        IntroMedia
}

// PhotoFailure reports one photo slot whose upload failed.
type PhotoFailure struct {
	Slot int   `json:"slot"`
	Err  error `json:"-"`
}

// SubmissionResult is the outcome of a successful submission. PhotoFailures
// lists slots whose uploads failed; those slots are absent from the persisted
// photo list rather than aborting the submission.
type SubmissionResult struct {
	Profile       *models.Profile
	PhotoFailures []PhotoFailure
}

// SubmissionWorkflow runs the validate, upload, persist sequence for a
// profile submission. It is re-enterable: a new Submit after success or
// failure starts over at validation with whatever the caller passes in.
type SubmissionWorkflow struct {
	uploader Uploader
	profiles repository.ProfileRepository
	users    repository.UserRepository

	uploadTimeout  time.Duration
	persistTimeout time.Duration

	mu       sync.Mutex
	state    SubmissionState
	observer func(SubmissionState)
}

// WorkflowOption configures a SubmissionWorkflow.
type WorkflowOption func(*SubmissionWorkflow)

// WithStateObserver registers a callback invoked on every state transition.
func WithStateObserver(fn func(SubmissionState)) WorkflowOption {
	return func(w *SubmissionWorkflow) { w.observer = fn }
}

// WithTimeouts overrides the upload and persist deadlines.
func WithTimeouts(upload, persist time.Duration) WorkflowOption {
	return func(w *SubmissionWorkflow) {
		w.uploadTimeout = upload
		w.persistTimeout = persist
	}
}

// NewSubmissionWorkflow wires a workflow from its collaborators.
func NewSubmissionWorkflow(uploader Uploader, profiles repository.ProfileRepository, users repository.UserRepository, opts ...WorkflowOption) *SubmissionWorkflow {
	w := &SubmissionWorkflow{
		uploader:       uploader,
		profiles:       profiles,
		users:          users,
		uploadTimeout:  defaultUploadTimeout,
		persistTimeout: defaultPersistTimeout,
		state:          StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the workflow's current state.
func (w *SubmissionWorkflow) State() SubmissionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *SubmissionWorkflow) setState(s SubmissionState) {
	w.mu.Lock()
	w.state = s
	observer := w.observer
	w.mu.Unlock()
	if observer != nil {
		observer(s)
	}
}

func (w *SubmissionWorkflow) fail(err error) error {
	w.setState(StateFailed)
	observability.ProfileSubmissions.WithLabelValues(string(StateFailed)).Inc()
	return err
}

// Submit runs one submission attempt for the given owner. Validation happens
// entirely locally; no upload or store call is made until every constraint
// passes.
func (w *SubmissionWorkflow) Submit(ctx context.Context, ownerID uint, in SubmissionInput) (*SubmissionResult, error) {
	w.setState(StateValidating)
	if violations := validateSubmission(in); len(violations) > 0 {
		return nil, w.fail(models.NewValidationErrors(violations))
	}

	w.setState(StateUploadingMedia)
	photoURLs, photoFailures, introURL, err := w.uploadMedia(ctx, in)
	if err != nil {
		return nil, w.fail(err)
	}

	// Partial photo failure does not abort the submission: failed slots are
	// dropped from the persisted list and reported to the caller per slot.
	w.setState(StatePersisting)
	profile := &models.Profile{
		UserID:        ownerID,
		Name:          in.Name,
		Email:         in.Email,
		Vibe:          in.Vibe,
		Mood:          in.Mood,
		SkillsKnown:   in.SkillsKnown,
		SkillsWanted:  in.SkillsWanted,
		ProfilePhotos: photoURLs,
		IntroMediaURL: introURL,
		Note:          in.Note,
	}

	persistCtx, cancel := context.WithTimeout(ctx, w.persistTimeout)
	defer cancel()
	if err := w.profiles.Save(persistCtx, ownerID, profile); err != nil {
		return nil, w.fail(err)
	}

	// The onboarded flag flips only after the profile write lands.
	if w.users != nil {
		if err := w.users.SetOnboarded(persistCtx, ownerID, true); err != nil {
			return nil, w.fail(err)
		}
	}

	w.setState(StateSucceeded)
	observability.ProfileSubmissions.WithLabelValues(string(StateSucceeded)).Inc()
	return &SubmissionResult{Profile: profile, PhotoFailures: photoFailures}, nil
}

// validateSubmission collects every violated constraint instead of stopping
// at the first.
func validateSubmission(in SubmissionInput) []string {
	var violations []string
	if len(in.SkillsKnown) == 0 {
		violations = append(violations, "at least one skill you know is required")
	}
	if len(in.SkillsWanted) == 0 {
		violations = append(violations, "at least one skill you want to learn is required")
	}
	switch in.Intro.(type) {
	case VideoIntro, AudioIntro:
	default:
		violations = append(violations, "a video or audio intro is required")
	}
	if len(in.Photos) > models.MaxProfilePhotos {
		violations = append(violations, "too many profile photos")
	}
	return violations
}

// uploadMedia fans out the photo and intro uploads in one concurrent batch
// and waits for all of them to settle. Photo results keep their slot order.
// A failed intro upload fails the whole attempt; the intro is a required
// field, so persisting without it would contradict validation.
func (w *SubmissionWorkflow) uploadMedia(ctx context.Context, in SubmissionInput) (photoURLs []string, photoFailures []PhotoFailure, introURL string, err error) {
	assets := make([]Asset, 0, len(in.Photos)+1)
	for i, photo := range in.Photos {
		photo.Kind = AssetPhoto
		photo.Slot = i
		assets = append(assets, photo)
	}

	introIndex := -1
	switch intro := in.Intro.(type) {
	case VideoIntro:
		a := intro.Asset
		a.Kind = AssetVideo
		introIndex = len(assets)
		assets = append(assets, a)
	case AudioIntro:
		a := intro.Asset
		a.Kind = AssetAudio
		introIndex = len(assets)
		assets = append(assets, a)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, w.uploadTimeout)
	defer cancel()
	results := w.uploader.UploadMany(uploadCtx, assets)

	photoURLs = make([]string, 0, len(in.Photos))
	for i := 0; i < len(in.Photos); i++ {
		if results[i].Err != nil {
			photoFailures = append(photoFailures, PhotoFailure{Slot: results[i].Slot, Err: results[i].Err})
			continue
		}
		photoURLs = append(photoURLs, results[i].Ref.URL)
	}

	if introIndex >= 0 {
		if results[introIndex].Err != nil {
			return nil, nil, "", results[introIndex].Err
		}
		introURL = results[introIndex].Ref.URL
	}

	return photoURLs, photoFailures, introURL, nil
}
