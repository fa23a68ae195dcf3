package session

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/ai"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// PeerDiscussant is the pluggable peer-discussion collaborator. The
// runtime only needs "thread opened" and "reply produced"; a real
// conversational backend can replace SimulatedDiscussant without
// touching the phase machine.
type PeerDiscussant interface {
	// Open produces a peer persona and opening remark seeded with the
	// question and the student's submitted answer.
	Open(ctx context.Context, seed *ai.PeerSeed) (*ai.PeerOpening, error)
	// Reply produces the peer's answer to a student message.
	Reply(ctx context.Context, thread *model.DiscussionThread, message string) (string, error)
}

// SimulatedDiscussant opens threads through the AI collaborator and
// answers follow-up messages from a small fixed set of acknowledgments
// after a fixed delay. A UX simulation, not a dialogue system.
type SimulatedDiscussant struct {
	ai         *ai.Client
	replyDelay time.Duration
	log        zerolog.Logger
}

// NewSimulatedDiscussant creates the default discussant.
func NewSimulatedDiscussant(aiClient *ai.Client, replyDelay time.Duration, log zerolog.Logger) *SimulatedDiscussant {
	return &SimulatedDiscussant{
		ai:         aiClient,
		replyDelay: replyDelay,
		log:        log.With().Str("component", "discussant").Logger(),
	}
}

// fallbackOpening keeps the discussion flow alive when the AI
// collaborator is unreachable. The phase machine must not depend on AI
// availability.
var fallbackOpening = ai.PeerOpening{
	PeerName:         "Raka",
	PeerReasoning:    "Aku memilih jawaban yang sama sekali beda tadi, tapi aku nggak terlalu yakin.",
	DiscussionPrompt: "Menurutmu bagian mana dari soal ini yang paling menentukan jawabannya?",
}

// cannedReplies are the filler acknowledgments used for follow-ups.
var cannedReplies = []string{
	"Hmm, masuk akal juga. Aku belum kepikiran dari sisi itu.",
	"Oh iya ya, benar juga katamu.",
	"Menarik! Jadi kamu yakin dengan pilihanmu?",
	"Aku setuju sebagian, tapi masih ragu di bagian akhirnya.",
	"Oke, itu membantu. Terima kasih sudah menjelaskan!",
}

// Open requests a peer persona from the AI collaborator, falling back
// to a canned persona on failure.
func (d *SimulatedDiscussant) Open(ctx context.Context, seed *ai.PeerSeed) (*ai.PeerOpening, error) {
	opening, err := d.ai.OpenDiscussion(ctx, seed)
	if err != nil {
		d.log.Warn().Err(err).Msg("AI opening failed, using fallback persona")
		fallback := fallbackOpening
		return &fallback, nil
	}
	return opening, nil
}

// Reply waits the fixed delay and returns a canned acknowledgment,
// picked deterministically from the message so repeated runs are
// stable.
func (d *SimulatedDiscussant) Reply(ctx context.Context, thread *model.DiscussionThread, message string) (string, error) {
	select {
	case <-time.After(d.replyDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	h := fnv.New32a()
	h.Write([]byte(message))
	// Reduce in uint32 space: int(h.Sum32()) is negative for large sums
	// on 32-bit platforms and a negative index would panic.
	return cannedReplies[h.Sum32()%uint32(len(cannedReplies))], nil
}
