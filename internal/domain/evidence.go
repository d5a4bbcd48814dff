package domain

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceTier grades source quality from gold-standard (1) to anecdotal (4).
type EvidenceTier int

const (
	TierGoldStandard EvidenceTier = 1
	TierReputable    EvidenceTier = 2
	TierSecondary    EvidenceTier = 3
	TierAnecdotal    EvidenceTier = 4
)

func ValidEvidenceTier(t int) bool {
	return t >= int(TierGoldStandard) && t <= int(TierAnecdotal)
}

// Weight returns the tier's contribution multiplier used by the evidence
// aggregator and the corroboration boost.
func (t EvidenceTier) Weight() float64 {
	switch t {
	case TierGoldStandard:
		return 1.0
	case TierReputable:
		return 0.6
	case TierSecondary:
		return 0.4
	case TierAnecdotal:
		return 0.25
	default:
		return 0.25
	}
}

type VerificationStatus string

const (
	EvidenceUnverified VerificationStatus = "unverified"
	EvidenceVerified   VerificationStatus = "verified"
	EvidenceDisputed   VerificationStatus = "disputed"
)

const (
	initialCredibility    = 50
	credibilityEventDelta = 10

	// verificationThreshold is the count of independent verifications (or
	// disputes) at which the derived status flips.
	verificationThreshold = 3
)

// Evidence is a cited source backing one argument. Credibility starts neutral
// and is engine-owned once verification events are applied.
type Evidence struct {
	ID            uuid.UUID    `json:"id"`
	ArgumentID    uuid.UUID    `json:"argument_id"`
	Title         string       `json:"title"`
	URL           string       `json:"url,omitempty"`
	Tier          EvidenceTier `json:"tier"`
	Credibility   int          `json:"credibility"`
	Verifications int          `json:"verifications"`
	Disputes      int          `json:"disputes"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func NewEvidence(argumentID uuid.UUID, title, url string, tier EvidenceTier) *Evidence {
	return &Evidence{
		ArgumentID:  argumentID,
		Title:       title,
		URL:         url,
		Tier:        tier,
		Credibility: initialCredibility,
	}
}

// Status derives the verification status from event counts. Disputes win
// ties: contested evidence should not read as verified.
func (e *Evidence) Status() VerificationStatus {
	if e.Disputes >= verificationThreshold {
		return EvidenceDisputed
	}
	if e.Verifications >= verificationThreshold {
		return EvidenceVerified
	}
	return EvidenceUnverified
}

// Verify records one independent verification event.
func (e *Evidence) Verify() {
	e.Verifications++
	e.Credibility = ClampScore(e.Credibility + credibilityEventDelta)
}

// Dispute records one dispute event.
func (e *Evidence) Dispute() {
	e.Disputes++
	e.Credibility = ClampScore(e.Credibility - credibilityEventDelta)
}

// Retract zeroes credibility and marks the evidence disputed, used for
// retraction cascades and what-if previews.
func (e *Evidence) Retract() {
	e.Credibility = 0
	if e.Disputes < verificationThreshold {
		e.Disputes = verificationThreshold
	}
}
