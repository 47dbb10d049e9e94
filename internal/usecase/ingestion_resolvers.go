package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/country"
	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/league"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
	"github.com/riskibarqy/matchday/internal/platform/id"
)

// TxManager runs fn in one transaction of the canonical store. Repositories
// called with the ctx passed to fn join that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Resolution is the canonical outcome of one verified payload.
type Resolution struct {
	Entity   string
	EntityID string
	Created  bool
	FollowUp []jobscheduler.Job
}

// Resolver turns one kind of payload into canonical rows. It runs inside the
// caller's transaction and must not enqueue anything itself.
type Resolver interface {
	Kind() ingestion.Kind
	Resolve(ctx context.Context, payload ingestion.Payload) (Resolution, error)
}

// CatalogRepositories groups the canonical lookups resolvers read and write.
type CatalogRepositories struct {
	Countries country.Repository
	Leagues   league.Repository
	Seasons   season.Repository
	Teams     team.Repository
	Players   player.Repository
	Matches   match.Repository
}

type ResolverPolicy struct {
	// DefaultCountryID is used when a club, player or league names no known country.
	DefaultCountryID string
}

// NewResolvers builds one resolver per ingestion kind.
func NewResolvers(repos CatalogRepositories, policy ResolverPolicy, ids id.Generator, now func() time.Time) []Resolver {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if now == nil {
		now = time.Now
	}
	base := resolverBase{repos: repos, policy: policy, ids: ids, now: now}
	return []Resolver{
		matchResolver{base},
		clubResolver{base},
		playerResolver{base},
		leagueResolver{base},
		seasonResolver{base},
	}
}

type resolverBase struct {
	repos  CatalogRepositories
	policy ResolverPolicy
	ids    id.Generator
	now    func() time.Time
}

func (b resolverBase) newID(given string) (string, error) {
	if given = strings.TrimSpace(given); given != "" {
		return given, nil
	}
	return b.ids.NewID()
}

// Strategy lists, one per referenced entity kind. Order matters: id, then
// exact name, then policy default where one exists.

func (b resolverBase) countryStrategies() []ingestion.Strategy[country.Country] {
	return []ingestion.Strategy[country.Country]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (country.Country, bool, error) {
			if ref.ID == "" {
				return country.Country{}, false, nil
			}
			return b.repos.Countries.GetByID(ctx, ref.ID)
		}},
		{Name: "name", Resolve: func(ctx context.Context, ref ingestion.Reference) (country.Country, bool, error) {
			if ref.Name == "" {
				return country.Country{}, false, nil
			}
			return b.repos.Countries.FindByName(ctx, ref.Name)
		}},
		{Name: "default", Resolve: func(ctx context.Context, _ ingestion.Reference) (country.Country, bool, error) {
			if b.policy.DefaultCountryID == "" {
				return country.Country{}, false, nil
			}
			return b.repos.Countries.GetByID(ctx, b.policy.DefaultCountryID)
		}},
	}
}

func (b resolverBase) teamStrategies() []ingestion.Strategy[team.Team] {
	return []ingestion.Strategy[team.Team]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (team.Team, bool, error) {
			if ref.ID == "" {
				return team.Team{}, false, nil
			}
			return b.repos.Teams.GetByID(ctx, ref.ID)
		}},
		{Name: "name", Resolve: func(ctx context.Context, ref ingestion.Reference) (team.Team, bool, error) {
			if ref.Name == "" {
				return team.Team{}, false, nil
			}
			return b.repos.Teams.FindByName(ctx, ref.Name)
		}},
	}
}

func (b resolverBase) leagueStrategies() []ingestion.Strategy[league.League] {
	return []ingestion.Strategy[league.League]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (league.League, bool, error) {
			if ref.ID == "" {
				return league.League{}, false, nil
			}
			return b.repos.Leagues.GetByID(ctx, ref.ID)
		}},
		{Name: "name", Resolve: func(ctx context.Context, ref ingestion.Reference) (league.League, bool, error) {
			if ref.Name == "" {
				return league.League{}, false, nil
			}
			return b.repos.Leagues.FindByName(ctx, ref.Name)
		}},
	}
}

// seasonStrategies resolves by id, or by season name inside the league
// named by leagueName.
func (b resolverBase) seasonStrategies(leagueName string) []ingestion.Strategy[season.Season] {
	return []ingestion.Strategy[season.Season]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (season.Season, bool, error) {
			if ref.ID == "" {
				return season.Season{}, false, nil
			}
			return b.repos.Seasons.GetByID(ctx, ref.ID)
		}},
		{Name: "league+name", Resolve: func(ctx context.Context, ref ingestion.Reference) (season.Season, bool, error) {
			if ref.Name == "" || strings.TrimSpace(leagueName) == "" {
				return season.Season{}, false, nil
			}
			owner, ok, err := b.repos.Leagues.FindByName(ctx, leagueName)
			if err != nil || !ok {
				return season.Season{}, false, err
			}
			return b.repos.Seasons.FindByName(ctx, owner.ID, ref.Name)
		}},
	}
}

// playerStrategies resolves by id, or by player name inside one club.
func (b resolverBase) playerStrategies(teamID string) []ingestion.Strategy[player.Player] {
	return []ingestion.Strategy[player.Player]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (player.Player, bool, error) {
			if ref.ID == "" {
				return player.Player{}, false, nil
			}
			return b.repos.Players.GetByID(ctx, ref.ID)
		}},
		{Name: "club+name", Resolve: func(ctx context.Context, ref ingestion.Reference) (player.Player, bool, error) {
			if ref.Name == "" || teamID == "" {
				return player.Player{}, false, nil
			}
			return b.repos.Players.FindByName(ctx, teamID, ref.Name)
		}},
	}
}

// ownSeasonStrategies resolves by id, or by season name inside an already
// resolved league.
func (b resolverBase) ownSeasonStrategies(leagueID string) []ingestion.Strategy[season.Season] {
	return []ingestion.Strategy[season.Season]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (season.Season, bool, error) {
			if ref.ID == "" {
				return season.Season{}, false, nil
			}
			return b.repos.Seasons.GetByID(ctx, ref.ID)
		}},
		{Name: "league+name", Resolve: func(ctx context.Context, ref ingestion.Reference) (season.Season, bool, error) {
			if ref.Name == "" || leagueID == "" {
				return season.Season{}, false, nil
			}
			return b.repos.Seasons.FindByName(ctx, leagueID, ref.Name)
		}},
	}
}

// fixtureStrategies resolves by id, or by season, both teams and kick-off.
func (b resolverBase) fixtureStrategies(item match.Match) []ingestion.Strategy[match.Match] {
	return []ingestion.Strategy[match.Match]{
		{Name: "id", Resolve: func(ctx context.Context, ref ingestion.Reference) (match.Match, bool, error) {
			if ref.ID == "" {
				return match.Match{}, false, nil
			}
			return b.repos.Matches.GetByID(ctx, ref.ID)
		}},
		{Name: "fixture", Resolve: func(ctx context.Context, _ ingestion.Reference) (match.Match, bool, error) {
			return b.repos.Matches.FindFixture(ctx, item.SeasonID, item.HomeTeamID, item.AwayTeamID, item.ScheduledAt)
		}},
	}
}

// canonical links a payload to the row it describes. The row is looked up
// with the entity's own strategies first and inserted only on a miss; an
// insert ignored because another writer took the natural key meanwhile
// resolves to that writer's row.
func canonical[T any](
	ctx context.Context,
	entity string,
	ref ingestion.Reference,
	strategies []ingestion.Strategy[T],
	idOf func(T) string,
	insert func(ctx context.Context) (string, bool, error),
) (string, bool, error) {
	existing, found, err := ingestion.Lookup(ctx, entity, ref, strategies)
	if err != nil {
		return "", false, err
	}
	if found {
		return idOf(existing), false, nil
	}

	entityID, created, err := insert(ctx)
	if err != nil || created {
		return entityID, created, err
	}
	existing, found, err = ingestion.Lookup(ctx, entity, ref, strategies)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, fmt.Errorf("%w: %s %q was neither inserted nor found", ErrConflict, entity, ref.String())
	}
	return idOf(existing), false, nil
}

// followUps returns jobs only for rows the resolution created.
func followUps(created bool, jobs ...jobscheduler.Job) []jobscheduler.Job {
	if !created {
		return nil
	}
	return jobs
}

func refOf(refID, name string) ingestion.Reference {
	return ingestion.Reference{ID: strings.TrimSpace(refID), Name: strings.TrimSpace(name)}
}

func searchIndexJob(entity, entityID string) jobscheduler.Job {
	return jobscheduler.Job{
		Kind:     jobscheduler.KindSearchIndex,
		TargetID: entityID,
		Payload:  map[string]string{"entity": entity},
	}
}

type matchResolver struct{ resolverBase }

func (matchResolver) Kind() ingestion.Kind { return ingestion.KindMatch }

func (r matchResolver) Resolve(ctx context.Context, payload ingestion.Payload) (Resolution, error) {
	data, ok := payload.Data.(*ingestion.MatchPayload)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unexpected payload %T for MATCH", ErrInvalidInput, payload.Data)
	}

	owner, err := ingestion.Resolve(ctx, "season", refOf(data.SeasonID, data.SeasonName), r.seasonStrategies(data.LeagueName))
	if err != nil {
		return Resolution{}, err
	}
	home, err := ingestion.Resolve(ctx, "home team", refOf(data.HomeTeamID, data.HomeTeamName), r.teamStrategies())
	if err != nil {
		return Resolution{}, err
	}
	away, err := ingestion.Resolve(ctx, "away team", refOf(data.AwayTeamID, data.AwayTeamName), r.teamStrategies())
	if err != nil {
		return Resolution{}, err
	}

	item := match.Match{
		SeasonID:    owner.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		ScheduledAt: data.ScheduledAt.UTC(),
		Venue:       strings.TrimSpace(data.Venue),
		Status:      match.StatusScheduled,
		UpdatedAt:   r.now().UTC(),
	}
	matchID, created, err := canonical(ctx, "match", refOf(data.ID, ""), r.fixtureStrategies(item),
		func(m match.Match) string { return m.ID },
		func(ctx context.Context) (string, bool, error) {
			var err error
			if item.ID, err = r.newID(data.ID); err != nil {
				return "", false, fmt.Errorf("generate match id: %w", err)
			}
			if err := item.Validate(); err != nil {
				return "", false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			created, err := r.repos.Matches.Insert(ctx, item)
			if err != nil {
				return "", false, fmt.Errorf("insert match: %w", err)
			}
			return item.ID, created, nil
		})
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Entity:   "match",
		EntityID: matchID,
		Created:  created,
		FollowUp: followUps(created,
			searchIndexJob("match", matchID),
			jobscheduler.Job{Kind: jobscheduler.KindStandings, TargetID: owner.ID},
		),
	}, nil
}

type clubResolver struct{ resolverBase }

func (clubResolver) Kind() ingestion.Kind { return ingestion.KindClub }

func (r clubResolver) Resolve(ctx context.Context, payload ingestion.Payload) (Resolution, error) {
	data, ok := payload.Data.(*ingestion.ClubPayload)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unexpected payload %T for CLUB", ErrInvalidInput, payload.Data)
	}

	home, err := ingestion.Resolve(ctx, "country", refOf(data.CountryID, data.CountryName), r.countryStrategies())
	if err != nil {
		return Resolution{}, err
	}
	item := team.Team{
		Name:      strings.TrimSpace(data.Name),
		ShortName: strings.TrimSpace(data.ShortName),
		CountryID: home.ID,
	}
	teamID, created, err := canonical(ctx, "club", refOf(data.ID, item.Name), r.teamStrategies(),
		func(t team.Team) string { return t.ID },
		func(ctx context.Context) (string, bool, error) {
			var err error
			if item.ID, err = r.newID(data.ID); err != nil {
				return "", false, fmt.Errorf("generate team id: %w", err)
			}
			if err := item.Validate(); err != nil {
				return "", false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			created, err := r.repos.Teams.Insert(ctx, item)
			if err != nil {
				return "", false, fmt.Errorf("insert team: %w", err)
			}
			return item.ID, created, nil
		})
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Entity:   "team",
		EntityID: teamID,
		Created:  created,
		FollowUp: followUps(created, searchIndexJob("team", teamID)),
	}, nil
}

type playerResolver struct{ resolverBase }

func (playerResolver) Kind() ingestion.Kind { return ingestion.KindPlayer }

func (r playerResolver) Resolve(ctx context.Context, payload ingestion.Payload) (Resolution, error) {
	data, ok := payload.Data.(*ingestion.PlayerPayload)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unexpected payload %T for PLAYER", ErrInvalidInput, payload.Data)
	}

	club, err := ingestion.Resolve(ctx, "club", refOf(data.ClubID, data.ClubName), r.teamStrategies())
	if err != nil {
		return Resolution{}, err
	}
	nationality, err := ingestion.Resolve(ctx, "country", refOf(data.CountryID, data.CountryName), r.countryStrategies())
	if err != nil {
		return Resolution{}, err
	}
	position, ok := player.ParsePosition(data.Position)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: invalid player position %q", ErrInvalidInput, data.Position)
	}
	item := player.Player{
		TeamID:    club.ID,
		CountryID: nationality.ID,
		Name:      strings.TrimSpace(data.Name),
		Position:  position,
	}
	playerID, created, err := canonical(ctx, "player", refOf(data.ID, item.Name), r.playerStrategies(club.ID),
		func(p player.Player) string { return p.ID },
		func(ctx context.Context) (string, bool, error) {
			var err error
			if item.ID, err = r.newID(data.ID); err != nil {
				return "", false, fmt.Errorf("generate player id: %w", err)
			}
			if err := item.Validate(); err != nil {
				return "", false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			created, err := r.repos.Players.Insert(ctx, item)
			if err != nil {
				return "", false, fmt.Errorf("insert player: %w", err)
			}
			return item.ID, created, nil
		})
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Entity:   "player",
		EntityID: playerID,
		Created:  created,
		FollowUp: followUps(created, searchIndexJob("player", playerID)),
	}, nil
}

type leagueResolver struct{ resolverBase }

func (leagueResolver) Kind() ingestion.Kind { return ingestion.KindLeague }

func (r leagueResolver) Resolve(ctx context.Context, payload ingestion.Payload) (Resolution, error) {
	data, ok := payload.Data.(*ingestion.LeaguePayload)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unexpected payload %T for LEAGUE", ErrInvalidInput, payload.Data)
	}

	home, err := ingestion.Resolve(ctx, "country", refOf(data.CountryID, data.CountryName), r.countryStrategies())
	if err != nil {
		return Resolution{}, err
	}
	item := league.League{
		Name:      strings.TrimSpace(data.Name),
		CountryID: home.ID,
	}
	leagueID, created, err := canonical(ctx, "league", refOf(data.ID, item.Name), r.leagueStrategies(),
		func(l league.League) string { return l.ID },
		func(ctx context.Context) (string, bool, error) {
			var err error
			if item.ID, err = r.newID(data.ID); err != nil {
				return "", false, fmt.Errorf("generate league id: %w", err)
			}
			if err := item.Validate(); err != nil {
				return "", false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			created, err := r.repos.Leagues.Insert(ctx, item)
			if err != nil {
				return "", false, fmt.Errorf("insert league: %w", err)
			}
			return item.ID, created, nil
		})
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Entity:   "league",
		EntityID: leagueID,
		Created:  created,
		FollowUp: followUps(created, searchIndexJob("league", leagueID)),
	}, nil
}

type seasonResolver struct{ resolverBase }

func (seasonResolver) Kind() ingestion.Kind { return ingestion.KindSeason }

func (r seasonResolver) Resolve(ctx context.Context, payload ingestion.Payload) (Resolution, error) {
	data, ok := payload.Data.(*ingestion.SeasonPayload)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unexpected payload %T for SEASON", ErrInvalidInput, payload.Data)
	}

	owner, err := ingestion.Resolve(ctx, "league", refOf(data.LeagueID, data.LeagueName), r.leagueStrategies())
	if err != nil {
		return Resolution{}, err
	}
	teamIDs := make([]string, 0, len(data.TeamIDs))
	for _, teamID := range data.TeamIDs {
		member, err := ingestion.Resolve(ctx, "season team", refOf(teamID, ""), r.teamStrategies())
		if err != nil {
			return Resolution{}, err
		}
		teamIDs = append(teamIDs, member.ID)
	}

	item := season.Season{
		LeagueID:        owner.ID,
		Name:            strings.TrimSpace(data.Name),
		PromotionSpots:  data.PromotionSpots,
		RelegationSpots: data.RelegationSpots,
		TeamIDs:         teamIDs,
	}
	seasonID, created, err := canonical(ctx, "season", refOf(data.ID, item.Name), r.ownSeasonStrategies(owner.ID),
		func(s season.Season) string { return s.ID },
		func(ctx context.Context) (string, bool, error) {
			var err error
			if item.ID, err = r.newID(data.ID); err != nil {
				return "", false, fmt.Errorf("generate season id: %w", err)
			}
			if err := item.Validate(); err != nil {
				return "", false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			created, err := r.repos.Seasons.Insert(ctx, item)
			if err != nil {
				return "", false, fmt.Errorf("insert season: %w", err)
			}
			return item.ID, created, nil
		})
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Entity:   "season",
		EntityID: seasonID,
		Created:  created,
		FollowUp: followUps(created, searchIndexJob("season", seasonID)),
	}, nil
}
