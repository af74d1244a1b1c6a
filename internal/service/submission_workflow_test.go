package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"swappi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploaderStub struct {
	calls        atomic.Int64
	uploadManyFn func(ctx context.Context, assets []Asset) []UploadResult
}

func (s *uploaderStub) UploadOne(ctx context.Context, asset Asset) (*RemoteRef, error) {
	s.calls.Add(1)
	results := s.UploadMany(ctx, []Asset{asset})
	return results[0].Ref, results[0].Err
}

func (s *uploaderStub) UploadMany(ctx context.Context, assets []Asset) []UploadResult {
	s.calls.Add(1)
	if s.uploadManyFn != nil {
		return s.uploadManyFn(ctx, assets)
	}
	results := make([]UploadResult, len(assets))
	for i, a := range assets {
		results[i] = UploadResult{
			Slot: a.Slot,
			Ref:  &RemoteRef{Key: fmt.Sprintf("k%d", i), URL: fmt.Sprintf("https://cdn.test/%s-%d", a.Kind, a.Slot)},
		}
	}
	return results
}

type profileRepoStub struct {
	saveCalls atomic.Int64
	saveFn    func(ctx context.Context, ownerID uint, profile *models.Profile) error
	saved     *models.Profile
}

func (s *profileRepoStub) Save(ctx context.Context, ownerID uint, profile *models.Profile) error {
	// identity check happens before anything touches storage
	if ownerID == 0 {
		return models.NewNotAuthenticatedError()
	}
	s.saveCalls.Add(1)
	if s.saveFn != nil {
		return s.saveFn(ctx, ownerID, profile)
	}
	s.saved = profile
	return nil
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return nil, models.NewNotFoundError("Profile", userID)
}

func (s *profileRepoStub) List(context.Context, int, int) ([]models.Profile, error) {
	return nil, nil
}

func validInput() SubmissionInput {
	return SubmissionInput{
		Name:         "Zoya",
		Email:        "zoya@example.com",
		Vibe:         "Creative chaos",
		Mood:         "🎨",
		SkillsKnown:  []string{"Sketching"},
		SkillsWanted: []string{"Guitar"},
		Intro:        VideoIntro{Asset: Asset{Filename: "intro.mp4", Content: []byte("v")}},
	}
}

func TestSubmissionWorkflow_ValidationFailsBeforeAnyCall(t *testing.T) {
	t.Parallel()

	uploads := &uploaderStub{}
	profiles := &profileRepoStub{}
	wf := NewSubmissionWorkflow(uploads, profiles, &userRepoStub{})

	in := validInput()
	in.SkillsKnown = nil
	in.SkillsWanted = nil
	in.Intro = NoIntroMedia{}

	_, err := wf.Submit(context.Background(), 1, in)
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Equal(t, StateFailed, wf.State())

	assert.Equal(t, int64(0), uploads.calls.Load(), "no upload call before validation passes")
	assert.Equal(t, int64(0), profiles.saveCalls.Load(), "no store call before validation passes")

	// every violated constraint is reported, not just the first
	msg := err.Error()
	assert.Contains(t, msg, "skill you know")
	assert.Contains(t, msg, "skill you want to learn")
	assert.Contains(t, msg, "video or audio intro")
}

func TestSubmissionWorkflow_PhotoOrderMatchesSelectionOrder(t *testing.T) {
	t.Parallel()

	const n = 6
	uploads := &uploaderStub{
		uploadManyFn: func(_ context.Context, assets []Asset) []UploadResult {
			// settle in reverse to prove order comes from slots, not completion
			results := make([]UploadResult, len(assets))
			for i := len(assets) - 1; i >= 0; i-- {
				results[i] = UploadResult{
					Slot: assets[i].Slot,
					Ref:  &RemoteRef{URL: fmt.Sprintf("https://cdn.test/photo-%d", assets[i].Slot)},
				}
			}
			return results
		},
	}
	profiles := &profileRepoStub{}
	wf := NewSubmissionWorkflow(uploads, profiles, &userRepoStub{})

	in := validInput()
	in.Intro = AudioIntro{Asset: Asset{Content: []byte("a")}}
	for i := 0; i < n; i++ {
		in.Photos = append(in.Photos, Asset{Content: []byte{byte(i)}})
	}

	result, err := wf.Submit(context.Background(), 1, in)
	require.NoError(t, err)

	require.Len(t, result.Profile.ProfilePhotos, n)
	for i, url := range result.Profile.ProfilePhotos {
		assert.Equal(t, fmt.Sprintf("https://cdn.test/photo-%d", i), url)
	}
}

func TestSubmissionWorkflow_PartialPhotoFailureStillPersists(t *testing.T) {
	t.Parallel()

	uploads := &uploaderStub{
		uploadManyFn: func(_ context.Context, assets []Asset) []UploadResult {
			results := make([]UploadResult, len(assets))
			for i, a := range assets {
				if a.Kind == AssetPhoto && a.Slot == 1 {
					results[i] = UploadResult{Slot: a.Slot, Err: models.NewTransferError(fmt.Errorf("blip"))}
					continue
				}
				results[i] = UploadResult{
					Slot: a.Slot,
					Ref:  &RemoteRef{URL: fmt.Sprintf("https://cdn.test/%s-%d", a.Kind, a.Slot)},
				}
			}
			return results
		},
	}
	profiles := &profileRepoStub{}

	var states []SubmissionState
	wf := NewSubmissionWorkflow(uploads, profiles, &userRepoStub{},
		WithStateObserver(func(s SubmissionState) { states = append(states, s) }))

	in := validInput()
	in.Photos = []Asset{
		{Content: []byte("p0")},
		{Content: []byte("p1")},
		{Content: []byte("p2")},
	}

	result, err := wf.Submit(context.Background(), 1, in)
	require.NoError(t, err)

	// the workflow must still reach persisting, not abort
	assert.Contains(t, states, StatePersisting)
	assert.Equal(t, StateSucceeded, wf.State())

	// the failed slot is present-as-absent in the stored list and surfaced explicitly
	assert.Equal(t, []string{
		"https://cdn.test/photo-0",
		"https://cdn.test/photo-2",
	}, result.Profile.ProfilePhotos)
	require.Len(t, result.PhotoFailures, 1)
	assert.Equal(t, 1, result.PhotoFailures[0].Slot)
	assert.Equal(t, int64(1), profiles.saveCalls.Load())
}

func TestSubmissionWorkflow_IntroUploadFailureFailsAttempt(t *testing.T) {
	t.Parallel()

	uploads := &uploaderStub{
		uploadManyFn: func(_ context.Context, assets []Asset) []UploadResult {
			results := make([]UploadResult, len(assets))
			for i, a := range assets {
				results[i] = UploadResult{Slot: a.Slot, Err: models.NewTransferError(fmt.Errorf("down"))}
			}
			return results
		},
	}
	profiles := &profileRepoStub{}
	wf := NewSubmissionWorkflow(uploads, profiles, &userRepoStub{})

	_, err := wf.Submit(context.Background(), 1, validInput())
	require.Error(t, err)
	assert.Equal(t, models.CodeTransfer, models.ErrorCode(err))
	assert.Equal(t, StateFailed, wf.State())
	assert.Equal(t, int64(0), profiles.saveCalls.Load())
}

func TestSubmissionWorkflow_NotAuthenticatedBlocksStoreWrite(t *testing.T) {
	t.Parallel()

	profiles := &profileRepoStub{}
	wf := NewSubmissionWorkflow(&uploaderStub{}, profiles, &userRepoStub{})

	_, err := wf.Submit(context.Background(), 0, validInput())
	require.Error(t, err)
	assert.Equal(t, models.CodeNotAuthenticated, models.ErrorCode(err))
	assert.Equal(t, "User not logged in", err.(*models.AppError).Message)
	assert.Equal(t, int64(0), profiles.saveCalls.Load(), "no document-store write without identity")
}

func TestSubmissionWorkflow_EndToEndStateSequence(t *testing.T) {
	t.Parallel()

	uploads := &uploaderStub{
		uploadManyFn: func(_ context.Context, assets []Asset) []UploadResult {
			results := make([]UploadResult, len(assets))
			for i, a := range assets {
				results[i] = UploadResult{Slot: a.Slot, Ref: &RemoteRef{URL: "https://cdn.test/intro.mp4"}}
			}
			return results
		},
	}
	profiles := &profileRepoStub{}

	var onboarded bool
	users := &userRepoStub{
		setOnboardedFn: func(_ context.Context, id uint, v bool) error {
			onboarded = v
			return nil
		},
	}

	var states []SubmissionState
	wf := NewSubmissionWorkflow(uploads, profiles, users,
		WithStateObserver(func(s SubmissionState) { states = append(states, s) }))

	assert.Equal(t, StateIdle, wf.State())

	in := SubmissionInput{
		Name:         "Rhea",
		Email:        "rhea@example.com",
		SkillsKnown:  []string{"Python", "Web dev", "UI design", "Chess", "Salsa"},
		SkillsWanted: []string{"Guitar", "Baking", "French", "Yoga", "Pottery"},
		Intro:        VideoIntro{Asset: Asset{Filename: "intro.mp4", Content: []byte("video")}},
	}

	result, err := wf.Submit(context.Background(), 9, in)
	require.NoError(t, err)

	assert.Equal(t, []SubmissionState{
		StateValidating, StateUploadingMedia, StatePersisting, StateSucceeded,
	}, states)
	assert.Equal(t, "https://cdn.test/intro.mp4", result.Profile.IntroMediaURL)
	assert.Empty(t, result.Profile.ProfilePhotos)
	assert.True(t, onboarded, "onboarded flag flips only after a successful save")
	require.NotNil(t, profiles.saved)
	assert.Equal(t, uint(9), profiles.saved.UserID)
}

func TestSubmissionWorkflow_ReenterableAfterFailure(t *testing.T) {
	t.Parallel()

	profiles := &profileRepoStub{}
	wf := NewSubmissionWorkflow(&uploaderStub{}, profiles, &userRepoStub{})

	bad := validInput()
	bad.SkillsKnown = nil
	_, err := wf.Submit(context.Background(), 1, bad)
	require.Error(t, err)
	assert.Equal(t, StateFailed, wf.State())

	// a retry re-enters validation with corrected input
	_, err = wf.Submit(context.Background(), 1, validInput())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, wf.State())
}

func TestSubmissionWorkflow_TimeoutsBoundRemoteCalls(t *testing.T) {
	t.Parallel()

	var uploadDeadline time.Time
	var uploadHasDeadline bool
	uploads := &uploaderStub{
		uploadManyFn: func(ctx context.Context, assets []Asset) []UploadResult {
			uploadDeadline, uploadHasDeadline = ctx.Deadline()
			results := make([]UploadResult, len(assets))
			for i, a := range assets {
				results[i] = UploadResult{Slot: a.Slot, Ref: &RemoteRef{URL: "https://cdn.test/intro.mp4"}}
			}
			return results
		},
	}

	// the store hangs until its context expires
	profiles := &profileRepoStub{
		saveFn: func(ctx context.Context, _ uint, _ *models.Profile) error {
			select {
			case <-ctx.Done():
				return models.NewWriteError(ctx.Err())
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	}

	wf := NewSubmissionWorkflow(uploads, profiles, &userRepoStub{},
		WithTimeouts(80*time.Millisecond, 20*time.Millisecond))

	start := time.Now()
	_, err := wf.Submit(context.Background(), 1, validInput())
	require.Error(t, err)

	assert.Equal(t, models.CodeWrite, models.ErrorCode(err))
	assert.Contains(t, err.Error(), context.DeadlineExceeded.Error())
	assert.Equal(t, StateFailed, wf.State())
	assert.Less(t, time.Since(start), 2*time.Second, "the persist step must give up at its deadline")

	require.True(t, uploadHasDeadline, "the upload batch runs under a deadline")
	assert.WithinDuration(t, start.Add(80*time.Millisecond), uploadDeadline, 500*time.Millisecond)
}

func TestSubmissionWorkflow_StoreFailureSurfacedVerbatim(t *testing.T) {
	t.Parallel()

	profiles := &profileRepoStub{
		saveFn: func(context.Context, uint, *models.Profile) error {
			return models.NewWriteError(fmt.Errorf("quota exceeded for document store"))
		},
	}
	wf := NewSubmissionWorkflow(&uploaderStub{}, profiles, &userRepoStub{})

	_, err := wf.Submit(context.Background(), 1, validInput())
	require.Error(t, err)
	assert.Equal(t, models.CodeWrite, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "quota exceeded for document store")
	assert.Equal(t, StateFailed, wf.State())
}
