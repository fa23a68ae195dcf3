package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/backend"
	"github.com/stemsi/kuisku-participant/internal/config"
	"github.com/stemsi/kuisku-participant/internal/middleware"
	"github.com/stemsi/kuisku-participant/internal/model"
	"github.com/stemsi/kuisku-participant/internal/response"
	"github.com/stemsi/kuisku-participant/internal/service"
	"github.com/stemsi/kuisku-participant/internal/session"
	"github.com/stemsi/kuisku-participant/internal/store"
	"github.com/stemsi/kuisku-participant/internal/validator"
)

// ParticipantHandler exposes the session runtime to the participant UI.
// Every endpoint except join requires a participant token; without one
// the UI redirects to identity capture.
type ParticipantHandler struct {
	cfg      *config.Config
	identity *service.IdentityService
	manager  *session.Manager
	backend  *backend.Client
	runner   session.CodeRunner
	analyzer session.Analyzer
	peers    session.PeerDiscussant
	progress *store.ProgressStore
	log      zerolog.Logger
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(
	cfg *config.Config,
	identity *service.IdentityService,
	manager *session.Manager,
	backendClient *backend.Client,
	runner session.CodeRunner,
	analyzer session.Analyzer,
	peers session.PeerDiscussant,
	progress *store.ProgressStore,
	log zerolog.Logger,
) *ParticipantHandler {
	return &ParticipantHandler{
		cfg:      cfg,
		identity: identity,
		manager:  manager,
		backend:  backendClient,
		runner:   runner,
		analyzer: analyzer,
		peers:    peers,
		progress: progress,
		log:      log.With().Str("component", "participant_handler").Logger(),
	}
}

// Join godoc
// POST /api/v1/participant/join
// Registers a display name, issues a participant token and starts the
// session runtime (poller included).
func (h *ParticipantHandler) Join(c *gin.Context) {
	var req model.JoinRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	participantID, token, err := h.identity.Register(c.Request.Context(), req.DisplayName)
	if err != nil {
		h.log.Error().Err(err).Msg("Identity registration failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	rt := h.manager.Create(session.Config{
		ParticipantID: participantID,
		DisplayName:   req.DisplayName,
		Pacing:        session.PacingFromString(req.Pacing),
		PollInterval:  h.cfg.PollInterval,
		Preload:       h.cfg.PreloadQuestions,
		Backend:       h.backend,
		Runner:        h.runner,
		Analyzer:      h.analyzer,
		Peers:         h.peers,
		Progress:      h.progress,
		Log:           h.log,
	})

	snap, err := rt.Snapshot(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"participant_id": participantID,
		"token":          token,
		"state":          snap,
	})
}

// GetState godoc
// GET /api/v1/participant/state
func (h *ParticipantHandler) GetState(c *gin.Context) {
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.Snapshot(c.Request.Context())
	})
}

// SelectOption godoc
// POST /api/v1/participant/answer
func (h *ParticipantHandler) SelectOption(c *gin.Context) {
	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.SelectOption(c.Request.Context(), *req.OptionIndex)
	})
}

// SetConfidence godoc
// PUT /api/v1/participant/confidence
func (h *ParticipantHandler) SetConfidence(c *gin.Context) {
	var req model.ConfidenceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.SetConfidence(c.Request.Context(), *req.Confidence)
	})
}

// SetReasoning godoc
// PUT /api/v1/participant/reasoning
func (h *ParticipantHandler) SetReasoning(c *gin.Context) {
	var req model.ReasoningRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.SetReasoning(c.Request.Context(), req.Reasoning)
	})
}

// Submit godoc
// POST /api/v1/participant/submit
// Fires the at-most-once submission; completion lands in the snapshot
// stream.
func (h *ParticipantHandler) Submit(c *gin.Context) {
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.Submit(c.Request.Context())
	})
}

// KeepAnswer godoc
// POST /api/v1/participant/discussion/keep
func (h *ParticipantHandler) KeepAnswer(c *gin.Context) {
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.KeepAnswer(c.Request.Context())
	})
}

// Revote godoc
// POST /api/v1/participant/discussion/revote
func (h *ParticipantHandler) Revote(c *gin.Context) {
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.Revote(c.Request.Context())
	})
}

// SendMessage godoc
// POST /api/v1/participant/discussion/message
func (h *ParticipantHandler) SendMessage(c *gin.Context) {
	var req model.DiscussionMessageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.SendMessage(c.Request.Context(), req.Content)
	})
}

// SetCode godoc
// PUT /api/v1/participant/code
func (h *ParticipantHandler) SetCode(c *gin.Context) {
	var req model.CodeBufferRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.SetCode(c.Request.Context(), req.Code)
	})
}

// RunCode godoc
// POST /api/v1/participant/code/run
func (h *ParticipantHandler) RunCode(c *gin.Context) {
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.RunCode(c.Request.Context())
	})
}

// AnalyzeCode godoc
// POST /api/v1/participant/code/analyze
func (h *ParticipantHandler) AnalyzeCode(c *gin.Context) {
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.Analyze(c.Request.Context())
	})
}

// Navigate godoc
// POST /api/v1/participant/navigate
func (h *ParticipantHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.run(c, func(rt *session.Runtime) (*session.Snapshot, error) {
		return rt.Navigate(c.Request.Context(), *req.Index)
	})
}

// Leave godoc
// POST /api/v1/participant/leave
// Tears the runtime down; no poll fires afterwards.
func (h *ParticipantHandler) Leave(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	// Leaving is explicit abandonment: stored progress goes with the
	// runtime, unlike a reload which resumes from it.
	if rt := h.manager.Get(claims.ParticipantID()); rt != nil {
		if snap, err := rt.Snapshot(c.Request.Context()); err == nil && snap.Session != nil {
			if err := h.progress.Reset(c.Request.Context(), claims.ParticipantID(), snap.Session.SessionID); err != nil {
				h.log.Warn().Err(err).Msg("Progress reset failed")
			}
		}
	}

	h.manager.Teardown(claims.ParticipantID())
	if err := h.identity.Remove(c.Request.Context(), claims.ParticipantID()); err != nil {
		h.log.Warn().Err(err).Msg("Identity removal failed")
	}

	response.Success(c, http.StatusOK, gin.H{"left": true})
}

// run executes one runtime command for the authenticated participant
// and renders the resulting snapshot or the mapped error.
func (h *ParticipantHandler) run(c *gin.Context, op func(*session.Runtime) (*session.Snapshot, error)) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	rt := h.manager.Get(claims.ParticipantID())
	if rt == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoRuntime)
		return
	}

	snap, err := op(rt)
	if err != nil {
		status, code := mapSessionError(err)
		response.Fail(c, status, code)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

func mapSessionError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, session.ErrRuntimeClosed):
		return http.StatusNotFound, response.ErrNoRuntime
	case errors.Is(err, session.ErrSessionCompleted):
		return http.StatusConflict, response.ErrSessionCompleted
	case errors.Is(err, session.ErrPhaseMismatch):
		return http.StatusConflict, response.ErrPhaseMismatch
	case errors.Is(err, session.ErrQuestionNotReady):
		return http.StatusConflict, response.ErrQuestionNotReady
	case errors.Is(err, session.ErrAlreadySubmitted):
		return http.StatusConflict, response.ErrAlreadySubmitted
	case errors.Is(err, session.ErrSubmissionGated):
		return http.StatusUnprocessableEntity, response.ErrSubmissionGated
	case errors.Is(err, session.ErrNavigationDenied):
		return http.StatusForbidden, response.ErrNavigationDenied
	case errors.Is(err, session.ErrActionInFlight):
		return http.StatusConflict, response.ErrActionInFlight
	case errors.Is(err, session.ErrNotCodeQuestion):
		return http.StatusConflict, response.ErrNotCodeQuestion
	case errors.Is(err, session.ErrAnalysisDenied):
		return http.StatusConflict, response.ErrAnalysisDenied
	case errors.Is(err, session.ErrInvalidOption):
		return http.StatusBadRequest, response.ErrInvalidPayload
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
