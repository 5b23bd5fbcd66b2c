package server

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"FitPulse_V0.1/internal/database"
	"FitPulse_V0.1/internal/geminiservice"
	"FitPulse_V0.1/internal/utility"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type analyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

type overviewResponse struct {
	ActivePlan  *database.FitnessPlan       `json:"activePlan"`
	RecentTurns []database.ConversationTurn `json:"recentTurns"`
}

// overviewRecentTurns caps how much conversation the dashboard shows.
const overviewRecentTurns = 10

func (s *Server) chatHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "A non-empty message is required"})
	}

	reply, err := s.chat.Send(c.Request().Context(), ownerID, req.Message)
	if err != nil {
		return aiError(c, err)
	}

	return c.JSON(http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) chatHistoryHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	turns, err := s.chat.History(c.Request().Context(), ownerID)
	if err != nil {
		return storeError(c, err)
	}
	if turns == nil {
		turns = []database.ConversationTurn{}
	}
	return c.JSON(http.StatusOK, turns)
}

func (s *Server) clearChatHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	if err := s.chat.Clear(c.Request().Context(), ownerID); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) analyzeFoodHandler(c echo.Context) error {
	if _, err := utility.GetOwnerIDFromContext(c); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil || req.ImageBase64 == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "An image is required"})
	}
	if req.MimeType == "" {
		req.MimeType = "image/jpeg"
	}

	imageBytes, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "The image is not valid base64 data"})
	}

	result, err := s.analyzer.Analyze(c.Request().Context(), geminiservice.InlineImage{
		MimeType: req.MimeType,
		Data:     imageBytes,
	})
	if err != nil {
		return aiError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) generatePlanHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	var profile geminiservice.PlanProfile
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid plan profile"})
	}

	plan, err := s.planner.Generate(c.Request().Context(), ownerID, profile)
	if err != nil {
		return aiError(c, err)
	}

	return c.JSON(http.StatusCreated, plan)
}

func (s *Server) listPlansHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	plans, err := s.planner.Plans(c.Request().Context(), ownerID)
	if err != nil {
		return storeError(c, err)
	}
	if plans == nil {
		plans = []database.FitnessPlan{}
	}
	return c.JSON(http.StatusOK, plans)
}

func (s *Server) activatePlanHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	planID := c.Param("plan_id")
	if err := s.planner.Activate(c.Request().Context(), ownerID, planID); err != nil {
		if err == database.ErrPlanNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "No such plan"})
		}
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// overviewHandler gathers the active plan and recent conversation
// concurrently; both reads are independent.
func (s *Server) overviewHandler(c echo.Context) error {
	ownerID, err := utility.GetOwnerIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	var resp overviewResponse
	g, ctx := errgroup.WithContext(c.Request().Context())

	g.Go(func() error {
		plan, err := s.db.GetActivePlan(ctx, ownerID)
		if err != nil {
			return err
		}
		resp.ActivePlan = plan
		return nil
	})

	g.Go(func() error {
		turns, err := s.db.ListTurns(ctx, ownerID)
		if err != nil {
			return err
		}
		if len(turns) > overviewRecentTurns {
			turns = turns[len(turns)-overviewRecentTurns:]
		}
		resp.RecentTurns = turns
		return nil
	})

	if err := g.Wait(); err != nil {
		return storeError(c, err)
	}
	if resp.RecentTurns == nil {
		resp.RecentTurns = []database.ConversationTurn{}
	}
	return c.JSON(http.StatusOK, resp)
}

// aiError resolves an AI-pipeline failure to its single user-facing sentence
// and status code. The classified detail goes to the operator log only.
func aiError(c echo.Context, err error) error {
	kind := geminiservice.Classify(err)
	utility.GetLoggerFromContext(c).Error().Err(err).Str("kind", kind.String()).Msg("assistant request failed")
	return c.JSON(statusForKind(kind), map[string]string{"error": geminiservice.UserMessage(kind)})
}

func statusForKind(kind geminiservice.Kind) int {
	switch kind {
	case geminiservice.KindServiceBusy:
		return http.StatusServiceUnavailable
	case geminiservice.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case geminiservice.KindContentRejected:
		return http.StatusUnprocessableEntity
	case geminiservice.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		// AuthConfig and Unknown both surface as a server-side problem.
		return http.StatusInternalServerError
	}
}

func storeError(c echo.Context, err error) error {
	utility.GetLoggerFromContext(c).Error().Err(err).Msg("database request failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong, please try again."})
}
