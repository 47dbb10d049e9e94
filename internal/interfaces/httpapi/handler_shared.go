package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/possession"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	matchService      *usecase.MatchService
	possessionService *usecase.PossessionService
	statsService      *usecase.StatsService
	standingsService  *usecase.StandingsService
	ingestionService  *usecase.IngestionService
	jobHandler        usecase.JobHandler
	jobDispatchRepo   jobscheduler.Repository
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	possessionService *usecase.PossessionService,
	statsService *usecase.StatsService,
	standingsService *usecase.StandingsService,
	ingestionService *usecase.IngestionService,
	jobHandler usecase.JobHandler,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:      matchService,
		possessionService: possessionService,
		statsService:      statsService,
		standingsService:  standingsService,
		ingestionService:  ingestionService,
		jobHandler:        jobHandler,
		jobDispatchRepo:   jobDispatchRepo,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a JSON body into out and validates it. An empty body
// decodes to the zero value when allowEmpty is set.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, out any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
	}
	return h.validateRequest(ctx, out)
}

type matchStatusRequest struct {
	MatchID       string `json:"match_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=scheduled live half_time finished postponed abandoned cancelled"`
	CurrentMinute *int   `json:"current_minute" validate:"omitempty,min=0"`
}

type matchScoreRequest struct {
	MatchID   string `json:"match_id" validate:"required"`
	HomeScore *int   `json:"home_score" validate:"required,min=0"`
	AwayScore *int   `json:"away_score" validate:"required,min=0"`
}

type matchEventRequest struct {
	MatchID   string `json:"match_id" validate:"required"`
	TeamID    string `json:"team_id" validate:"required"`
	EventType string `json:"event_type" validate:"required"`
	Minute    *int   `json:"minute" validate:"required,min=0"`
	PlayerID  string `json:"player_id" validate:"omitempty,max=100"`
}

type matchPossessionRequest struct {
	MatchID string `json:"match_id" validate:"required"`
	TeamID  string `json:"team_id" validate:"omitempty,max=100"`
	Second  *int   `json:"second" validate:"omitempty,min=0"`
	Source  string `json:"source" validate:"omitempty,max=100"`
}

type matchStatsRequest struct {
	MatchID         string `json:"match_id" validate:"required"`
	TeamID          string `json:"team_id" validate:"required"`
	Shots           *int   `json:"shots" validate:"omitempty,min=0"`
	ShotsOnTarget   *int   `json:"shots_on_target" validate:"omitempty,min=0"`
	Corners         *int   `json:"corners" validate:"omitempty,min=0"`
	Fouls           *int   `json:"fouls" validate:"omitempty,min=0"`
	Offsides        *int   `json:"offsides" validate:"omitempty,min=0"`
	YellowCards     *int   `json:"yellow_cards" validate:"omitempty,min=0"`
	RedCards        *int   `json:"red_cards" validate:"omitempty,min=0"`
	Passes          *int   `json:"passes" validate:"omitempty,min=0"`
	PassesCompleted *int   `json:"passes_completed" validate:"omitempty,min=0"`
}

type ingestRequest struct {
	Type    string          `json:"type" validate:"required"`
	Source  string          `json:"source" validate:"omitempty,max=100"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type verifyRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0,lte=1"`
	Notes string   `json:"notes" validate:"omitempty,max=2000"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type matchDTO struct {
	ID            string  `json:"id"`
	SeasonID      string  `json:"season_id"`
	HomeTeamID    string  `json:"home_team_id"`
	AwayTeamID    string  `json:"away_team_id"`
	ScheduledAt   string  `json:"scheduled_at"`
	Venue         string  `json:"venue,omitempty"`
	Status        string  `json:"status"`
	Period        *string `json:"period"`
	CurrentMinute *int    `json:"current_minute"`
	HomeScore     *int    `json:"home_score"`
	AwayScore     *int    `json:"away_score"`
	StartedAt     *string `json:"started_at"`
	EndedAt       *string `json:"ended_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type matchEventDTO struct {
	ID        string `json:"id"`
	MatchID   string `json:"match_id"`
	TeamID    string `json:"team_id"`
	PlayerID  string `json:"player_id,omitempty"`
	EventType string `json:"event_type"`
	Minute    int    `json:"minute"`
	CreatedAt string `json:"created_at"`
}

type possessionIntervalDTO struct {
	ID          string  `json:"id"`
	MatchID     string  `json:"match_id"`
	TeamID      *string `json:"team_id"`
	StartSecond int     `json:"start_second"`
	EndSecond   *int    `json:"end_second"`
	Source      string  `json:"source,omitempty"`
}

type teamMatchStatsDTO struct {
	MatchID           string  `json:"match_id"`
	TeamID            string  `json:"team_id"`
	Goals             int     `json:"goals"`
	Shots             int     `json:"shots"`
	ShotsOnTarget     int     `json:"shots_on_target"`
	Corners           int     `json:"corners"`
	Fouls             int     `json:"fouls"`
	Offsides          int     `json:"offsides"`
	YellowCards       int     `json:"yellow_cards"`
	RedCards          int     `json:"red_cards"`
	Passes            int     `json:"passes"`
	PassesCompleted   int     `json:"passes_completed"`
	PossessionSeconds int     `json:"possession_seconds"`
	PossessionPct     float64 `json:"possession_pct"`
	ComputedAt        string  `json:"computed_at"`
}

type teamCountersDTO struct {
	MatchID         string `json:"match_id"`
	TeamID          string `json:"team_id"`
	Shots           *int   `json:"shots"`
	ShotsOnTarget   *int   `json:"shots_on_target"`
	Corners         *int   `json:"corners"`
	Fouls           *int   `json:"fouls"`
	Offsides        *int   `json:"offsides"`
	YellowCards     *int   `json:"yellow_cards"`
	RedCards        *int   `json:"red_cards"`
	Passes          *int   `json:"passes"`
	PassesCompleted *int   `json:"passes_completed"`
	UpdatedAt       string `json:"updated_at"`
}

type leagueStandingDTO struct {
	SeasonID        string `json:"season_id"`
	TeamID          string `json:"team_id"`
	TeamName        string `json:"team_name"`
	Position        int    `json:"position"`
	Played          int    `json:"played"`
	Won             int    `json:"won"`
	Drawn           int    `json:"drawn"`
	Lost            int    `json:"lost"`
	GoalsFor        int    `json:"goals_for"`
	GoalsAgainst    int    `json:"goals_against"`
	GoalDifference  int    `json:"goal_difference"`
	Points          int    `json:"points"`
	PointsDeduction int    `json:"points_deduction,omitempty"`
	Status          string `json:"status,omitempty"`
	ComputedAt      string `json:"computed_at"`
}

type ingestionLogDTO struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Source           string          `json:"source"`
	Payload          json.RawMessage `json:"payload"`
	Status           string          `json:"status"`
	RejectReason     string          `json:"reject_reason,omitempty"`
	ReviewedBy       string          `json:"reviewed_by,omitempty"`
	ResolvedEntityID string          `json:"resolved_entity_id,omitempty"`
	ResolutionError  string          `json:"resolution_error,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

type verifyResultDTO struct {
	Log      ingestionLogDTO `json:"log"`
	EntityID string          `json:"entity_id"`
	Created  bool            `json:"created"`
}

func matchToDTO(m match.Match) matchDTO {
	out := matchDTO{
		ID:            m.ID,
		SeasonID:      m.SeasonID,
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		ScheduledAt:   formatTime(m.ScheduledAt),
		Venue:         m.Venue,
		Status:        string(m.Status),
		CurrentMinute: m.CurrentMinute,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		StartedAt:     formatOptionalTime(m.StartedAt),
		EndedAt:       formatOptionalTime(m.EndedAt),
		UpdatedAt:     formatTime(m.UpdatedAt),
	}
	if m.Period != match.PeriodNone {
		period := string(m.Period)
		out.Period = &period
	}
	return out
}

func matchEventToDTO(e matchevent.Event) matchEventDTO {
	return matchEventDTO{
		ID:        e.ID,
		MatchID:   e.MatchID,
		TeamID:    e.TeamID,
		PlayerID:  e.PlayerID,
		EventType: string(e.Type),
		Minute:    e.Minute,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func possessionIntervalToDTO(i possession.Interval) possessionIntervalDTO {
	return possessionIntervalDTO{
		ID:          i.ID,
		MatchID:     i.MatchID,
		TeamID:      i.TeamID,
		StartSecond: i.StartSecond,
		EndSecond:   i.EndSecond,
		Source:      i.Source,
	}
}

func teamMatchStatsToDTO(s teamstats.MatchStats) teamMatchStatsDTO {
	return teamMatchStatsDTO{
		MatchID:           s.MatchID,
		TeamID:            s.TeamID,
		Goals:             s.Goals,
		Shots:             s.Shots,
		ShotsOnTarget:     s.ShotsOnTarget,
		Corners:           s.Corners,
		Fouls:             s.Fouls,
		Offsides:          s.Offsides,
		YellowCards:       s.YellowCards,
		RedCards:          s.RedCards,
		Passes:            s.Passes,
		PassesCompleted:   s.PassesCompleted,
		PossessionSeconds: s.PossessionSeconds,
		PossessionPct:     s.PossessionPct,
		ComputedAt:        formatTime(s.ComputedAt),
	}
}

func teamCountersToDTO(c teamstats.Counters) teamCountersDTO {
	return teamCountersDTO{
		MatchID:         c.MatchID,
		TeamID:          c.TeamID,
		Shots:           c.Shots,
		ShotsOnTarget:   c.ShotsOnTarget,
		Corners:         c.Corners,
		Fouls:           c.Fouls,
		Offsides:        c.Offsides,
		YellowCards:     c.YellowCards,
		RedCards:        c.RedCards,
		Passes:          c.Passes,
		PassesCompleted: c.PassesCompleted,
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

func leagueStandingsToDTO(items []leaguestanding.Standing) []leagueStandingDTO {
	out := make([]leagueStandingDTO, 0, len(items))
	for _, s := range items {
		out = append(out, leagueStandingDTO{
			SeasonID:        s.SeasonID,
			TeamID:          s.TeamID,
			TeamName:        s.TeamName,
			Position:        s.Position,
			Played:          s.Played,
			Won:             s.Won,
			Drawn:           s.Drawn,
			Lost:            s.Lost,
			GoalsFor:        s.GoalsFor,
			GoalsAgainst:    s.GoalsAgainst,
			GoalDifference:  s.GoalDifference,
			Points:          s.Points,
			PointsDeduction: s.PointsDeduction,
			Status:          string(s.Status),
			ComputedAt:      formatTime(s.ComputedAt),
		})
	}
	return out
}

func ingestionLogToDTO(l ingestion.Log) ingestionLogDTO {
	payload := json.RawMessage(l.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return ingestionLogDTO{
		ID:               l.ID,
		Type:             string(l.Kind),
		Source:           l.Source,
		Payload:          payload,
		Status:           string(l.Status),
		RejectReason:     l.RejectReason,
		ReviewedBy:       l.ReviewedBy,
		ResolvedEntityID: l.ResolvedEntityID,
		ResolutionError:  l.ResolutionError,
		CreatedAt:        formatTime(l.CreatedAt),
		UpdatedAt:        formatTime(l.UpdatedAt),
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	out := v.UTC().Format(time.RFC3339)
	return &out
}
