package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// Payload is the decoded, kind-tagged body of an ingestion log. Data holds
// one of the *Payload structs below, matching Kind.
type Payload struct {
	Kind Kind
	Data any
}

type MatchPayload struct {
	ID           string    `json:"id"`
	SeasonID     string    `json:"seasonId"`
	SeasonName   string    `json:"seasonName"`
	LeagueName   string    `json:"leagueName"`
	HomeTeamID   string    `json:"homeTeamId"`
	HomeTeamName string    `json:"homeTeamName"`
	AwayTeamID   string    `json:"awayTeamId"`
	AwayTeamName string    `json:"awayTeamName"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	Venue        string    `json:"venue"`
}

type ClubPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"shortName"`
	CountryID   string `json:"countryId"`
	CountryName string `json:"countryName"`
}

type PlayerPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	ClubID      string `json:"clubId"`
	ClubName    string `json:"clubName"`
	CountryID   string `json:"countryId"`
	CountryName string `json:"countryName"`
}

type LeaguePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryID   string `json:"countryId"`
	CountryName string `json:"countryName"`
}

type SeasonPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	LeagueID        string   `json:"leagueId"`
	LeagueName      string   `json:"leagueName"`
	PromotionSpots  int      `json:"promotionSpots"`
	RelegationSpots int      `json:"relegationSpots"`
	TeamIDs         []string `json:"teamIds"`
}

// Decode parses raw JSON into the typed variant for kind.
func Decode(kind Kind, raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, fmt.Errorf("payload is empty")
	}

	var data any
	switch kind {
	case KindMatch:
		data = &MatchPayload{}
	case KindClub:
		data = &ClubPayload{}
	case KindPlayer:
		data = &PlayerPayload{}
	case KindLeague:
		data = &LeaguePayload{}
	case KindSeason:
		data = &SeasonPayload{}
	default:
		return Payload{}, crerr.Wrapf(ErrUnknownKind, "%q", kind)
	}

	if err := sonic.Unmarshal(raw, data); err != nil {
		return Payload{}, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	if err := validate(data); err != nil {
		return Payload{}, fmt.Errorf("invalid %s payload: %w", kind, err)
	}

	return Payload{Kind: kind, Data: data}, nil
}

func validate(data any) error {
	switch p := data.(type) {
	case *MatchPayload:
		if strings.TrimSpace(p.HomeTeamID+p.HomeTeamName) == "" {
			return fmt.Errorf("home team id or name is required")
		}
		if strings.TrimSpace(p.AwayTeamID+p.AwayTeamName) == "" {
			return fmt.Errorf("away team id or name is required")
		}
	case *ClubPayload:
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("club name is required")
		}
	case *PlayerPayload:
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("player name is required")
		}
	case *LeaguePayload:
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("league name is required")
		}
	case *SeasonPayload:
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("season name is required")
		}
		if p.PromotionSpots < 0 || p.RelegationSpots < 0 {
			return fmt.Errorf("promotion and relegation spots must be >= 0")
		}
	}
	return nil
}
