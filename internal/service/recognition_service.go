package service

import (
	"context"
	"time"

	"recognition-api/internal/arbiter"
	"recognition-api/internal/known"
	"recognition-api/internal/models"
	"recognition-api/internal/signals"

	"github.com/rs/zerolog/log"
)

// RecognitionInput is one recognition request: image bytes plus whatever
// metadata the caller extracted. Any field may be absent; an absent source
// simply contributes no candidate.
type RecognitionInput struct {
	Image          []byte
	ImageRef       string
	ExifGPS        *signals.ExifPayload
	ExifBinary     *signals.ExifPayload
	DeviceLocation *signals.ExifPayload
}

// RecognitionResult is the caller-facing outcome. Confidence and provenance
// are always present; a rejection is explicit, never a dressed-up guess.
type RecognitionResult struct {
	Decided   bool              `json:"decided"`
	Candidate *models.Candidate `json:"candidate,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Discarded []arbiter.Discard `json:"discarded,omitempty"`
}

// VisionDetector interface for dependency injection
type VisionDetector interface {
	Detect(ctx context.Context, image []byte) (*signals.VisionPayload, error)
}

// TextDescriber interface for dependency injection
type TextDescriber interface {
	Describe(ctx context.Context, image []byte) (*signals.FreeTextPayload, error)
}

// CorrectionFinder interface for dependency injection
type CorrectionFinder interface {
	FindCorrectionNear(ctx context.Context, coords models.Coordinates, radiusDeg float64) (*models.Correction, error)
}

// RecognitionService runs the arbitration pipeline for one request: prior
// correction pre-check, concurrent source fan-out, normalization,
// known-location override, then confidence arbitration.
type RecognitionService struct {
	normalizer  *signals.Normalizer
	matcher     *known.Matcher
	arbiter     *arbiter.Arbiter
	corrections CorrectionFinder
	vision      VisionDetector
	describer   TextDescriber

	visionTimeout time.Duration
	aiTextTimeout time.Duration
	radiusDeg     float64
}

// NewRecognitionService creates a new recognition service.
func NewRecognitionService(
	normalizer *signals.Normalizer,
	matcher *known.Matcher,
	arb *arbiter.Arbiter,
	corrections CorrectionFinder,
	vision VisionDetector,
	describer TextDescriber,
	visionTimeout, aiTextTimeout time.Duration,
	radiusDeg float64,
) *RecognitionService {
	return &RecognitionService{
		normalizer:    normalizer,
		matcher:       matcher,
		arbiter:       arb,
		corrections:   corrections,
		vision:        vision,
		describer:     describer,
		visionTimeout: visionTimeout,
		aiTextTimeout: aiTextTimeout,
		radiusDeg:     radiusDeg,
	}
}

// Recognize arbitrates all available signals into one decision.
//
// A prior user correction for the same coordinate bucket wins outright:
// repeating a mistake the user already fixed is the one failure mode this
// system must not have. Vision and AI-text calls run concurrently, each
// under its own timeout; a failed or timed-out source contributes no
// candidate and never fails the request.
func (s *RecognitionService) Recognize(ctx context.Context, input RecognitionInput) (RecognitionResult, error) {
	if corrected := s.correctionPreCheck(ctx, input); corrected != nil {
		return RecognitionResult{Decided: true, Candidate: corrected}, nil
	}

	visionCh := make(chan *signals.VisionPayload, 1)
	freeTextCh := make(chan *signals.FreeTextPayload, 1)

	go func() {
		visionCh <- s.detect(ctx, input.Image)
	}()
	go func() {
		freeTextCh <- s.describe(ctx, input.Image)
	}()

	var visionPayload *signals.VisionPayload
	var freeTextPayload *signals.FreeTextPayload
	for i := 0; i < 2; i++ {
		select {
		case visionPayload = <-visionCh:
		case freeTextPayload = <-freeTextCh:
		case <-ctx.Done():
			// Caller abandoned the request; stragglers are discarded.
			return RecognitionResult{}, ctx.Err()
		}
	}

	var candidates []models.Candidate
	if c := s.normalizer.ExifGPS(input.ExifGPS); c != nil {
		candidates = append(candidates, *c)
	}
	if c := s.normalizer.ExifBinary(input.ExifBinary); c != nil {
		candidates = append(candidates, *c)
	}
	candidates = append(candidates, s.normalizer.Vision(visionPayload)...)
	if c := s.normalizer.FreeText(freeTextPayload); c != nil {
		candidates = append(candidates, *c)
	}
	if c := s.normalizer.DeviceFallback(input.DeviceLocation); c != nil {
		candidates = append(candidates, *c)
	}

	knownHit := s.lookupKnown(candidates, freeTextPayload)

	decision := s.arbiter.Decide(knownHit, candidates)

	result := RecognitionResult{
		Decided:   decision.Decided,
		Candidate: decision.Winner,
		Reason:    decision.Reason,
		Discarded: decision.Discarded,
	}

	if decision.Decided {
		log.Info().
			Str("source", string(decision.Winner.Source)).
			Float64("confidence", decision.Winner.RawConfidence).
			Int("discarded", len(decision.Discarded)).
			Msg("recognition decided")
	} else {
		log.Info().
			Str("reason", decision.Reason).
			Int("discarded", len(decision.Discarded)).
			Msg("recognition rejected")
	}

	return result, nil
}

// correctionPreCheck consults prior user corrections for the request's
// approximate location before running the full pipeline. Lookup failures
// are logged and ignored; the store is an accelerator, not a dependency.
func (s *RecognitionService) correctionPreCheck(ctx context.Context, input RecognitionInput) *models.Candidate {
	coords := requestCoordinates(input)
	if coords == nil {
		return nil
	}

	correction, err := s.corrections.FindCorrectionNear(ctx, *coords, s.radiusDeg)
	if err != nil {
		log.Warn().Err(err).Msg("correction lookup failed, continuing with full pipeline")
		return nil
	}
	if correction == nil {
		return nil
	}

	log.Info().Str("correction_id", correction.ID).Msg("applying prior user correction")
	return &models.Candidate{
		Source:        models.SourceKnownLocation,
		Address:       correction.CorrectAddress,
		Coordinates:   correction.Coordinates,
		RawConfidence: correction.Confidence,
		Metadata: map[string]string{
			"method":        "user-correction",
			"correction_id": correction.ID,
		},
	}
}

func requestCoordinates(input RecognitionInput) *models.Coordinates {
	for _, payload := range []*signals.ExifPayload{input.ExifGPS, input.ExifBinary, input.DeviceLocation} {
		if payload != nil && payload.Latitude != 0 && payload.Longitude != 0 {
			return &models.Coordinates{Latitude: payload.Latitude, Longitude: payload.Longitude}
		}
	}
	return nil
}

func (s *RecognitionService) detect(ctx context.Context, image []byte) *signals.VisionPayload {
	if len(image) == 0 || s.vision == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.visionTimeout)
	defer cancel()

	payload, err := s.vision.Detect(callCtx, image)
	if err != nil {
		log.Warn().Err(err).Msg("vision source unavailable")
		return nil
	}
	return payload
}

func (s *RecognitionService) describe(ctx context.Context, image []byte) *signals.FreeTextPayload {
	if len(image) == 0 || s.describer == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.aiTextTimeout)
	defer cancel()

	payload, err := s.describer.Describe(callCtx, image)
	if err != nil {
		log.Warn().Err(err).Msg("ai text source unavailable")
		return nil
	}
	return payload
}

// lookupKnown tries the curated table using the best business name and
// phone number the signals produced.
func (s *RecognitionService) lookupKnown(candidates []models.Candidate, freeText *signals.FreeTextPayload) *models.Candidate {
	var name, phone string
	if freeText != nil {
		name = freeText.BusinessName
		phone = freeText.PhoneNumber
	}
	if name == "" {
		for _, c := range candidates {
			if c.Source == models.SourceAITextBusiness && c.Name != "" {
				name = c.Name
				break
			}
		}
	}

	entry := s.matcher.Find(name, phone)
	if entry == nil {
		return nil
	}

	candidate := known.Candidate(entry)
	return &candidate
}
