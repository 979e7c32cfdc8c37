package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/filmclub/internal/engine"
	"github.com/roach88/filmclub/internal/record"
)

// GuildOptions holds flags shared by the guild subcommands.
type GuildOptions struct {
	*RootOptions
	GuildID string

	// Clock and IDGenerator allow overriding time and film IDs (for testing).
	// If nil, they default to SystemClock and UUIDv7Generator.
	Clock       engine.Clock
	IDGenerator engine.IDGenerator
}

// NewGuildCommand creates the guild command and its subcommands.
func NewGuildCommand(rootOpts *RootOptions) *cobra.Command {
	return newGuildCommand(&GuildOptions{RootOptions: rootOpts})
}

func newGuildCommand(opts *GuildOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guild",
		Short: "Inspect or operate one guild's film club",
		Long: `Run film club operations directly against the database.

Every subcommand acts on the guild named by --guild, with the same rules
the Discord commands enforce.

Examples:
  filmclub guild --guild 1234 peek
  filmclub guild --guild 1234 nominate 5678 "The Thing (1982)" --imdb 0084787
  filmclub guild --guild 1234 watch 018f0c3a-... 5678 9012
  filmclub guild --guild 1234 history --limit 10 --format json`,
	}
	cmd.PersistentFlags().StringVarP(&opts.GuildID, "guild", "g", "", "guild ID (required)")
	_ = cmd.MarkPersistentFlagRequired("guild")

	cmd.AddCommand(
		newUsersCommand(opts),
		newPeekCommand(opts),
		newHistoryCommand(opts),
		newNominateCommand(opts),
		newVoteCommand(opts),
		newWatchCommand(opts),
		newHereCommand(opts),
		newNaughtyCommand(opts),
	)
	return cmd
}

// withEngine opens the database and runs fn with an engine for the guild.
func withEngine(cmd *cobra.Command, opts *GuildOptions, fn func(context.Context, *engine.Engine, *OutputFormatter) error) error {
	if strings.TrimSpace(opts.GuildID) == "" {
		return NewExitError(ExitCommandError, "guild ID is required")
	}
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	out := newFormatter(cmd, opts.RootOptions)
	out.VerboseLog("opening database %s", cfg.DBPath)
	st, err := openStore(cfg)
	if err != nil {
		_ = out.Error(ErrCodeDatabase, "failed to open database", err.Error())
		return err
	}
	defer st.Close()

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	e := engine.New(st, opts.GuildID, engine.WithLogger(logger))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, e, out)
}

func (o *GuildOptions) now() time.Time {
	if o.Clock != nil {
		return o.Clock.Now()
	}
	return engine.SystemClock{}.Now()
}

func (o *GuildOptions) newFilmID() string {
	if o.IDGenerator != nil {
		return o.IDGenerator.Generate()
	}
	return engine.UUIDv7Generator{}.Generate()
}

// FilmView is the CLI rendering of a film.
type FilmView struct {
	FilmID          string     `json:"film_id"`
	FilmName        string     `json:"film_name"`
	NominatedBy     string     `json:"nominated_by"`
	IMDbID          *string    `json:"imdb_id"`
	CastVotes       int64      `json:"cast_votes"`
	AttendanceVotes int64      `json:"attendance_votes"`
	DateNominated   time.Time  `json:"date_nominated"`
	DateWatched     *time.Time `json:"date_watched,omitempty"`
	UsersAttended   []string   `json:"users_attended,omitempty"`
}

func filmView(f record.Film) FilmView {
	v := FilmView{
		FilmID:          f.FilmID,
		FilmName:        f.FilmName,
		NominatedBy:     f.DiscordUserID,
		IMDbID:          f.IMDbID,
		CastVotes:       f.CastVotes,
		AttendanceVotes: f.AttendanceVotes,
		DateNominated:   f.DateNominated,
	}
	if f.Watch != nil {
		v.DateWatched = &f.Watch.DateWatched
		v.UsersAttended = f.Watch.UsersAttended
	}
	return v
}

func filmViews(films []record.Film) []FilmView {
	views := make([]FilmView, len(films))
	for i, f := range films {
		views[i] = filmView(f)
	}
	return views
}

// UserView is the CLI rendering of a user.
type UserView struct {
	DiscordUserID    string  `json:"discord_user_id"`
	NominatedFilmID  *string `json:"nominated_film_id"`
	VoteID           *string `json:"vote_id"`
	AttendanceVoteID *string `json:"attendance_vote_id"`
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func newUsersCommand(opts *GuildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users by nomination date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				users, err := e.UsersByNomination(ctx)
				if err != nil {
					return out.EngineError("users", err)
				}
				views := make([]UserView, len(users))
				var b strings.Builder
				for i, un := range users {
					u := un.User
					views[i] = UserView{
						DiscordUserID:    u.DiscordUserID,
						NominatedFilmID:  u.NominatedFilmID,
						VoteID:           u.VoteID,
						AttendanceVoteID: u.AttendanceVoteID,
					}
					fmt.Fprintf(&b, "%s nominated=%s vote=%s attended=%s\n",
						u.DiscordUserID, orDash(u.NominatedFilmID), orDash(u.VoteID), orDash(u.AttendanceVoteID))
				}
				if len(users) == 0 {
					b.WriteString("No users.\n")
				}
				return out.Text(views, b.String())
			})
		},
	}
}

func formatStandings(films []record.Film) string {
	if len(films) == 0 {
		return "No nominations.\n"
	}
	var b strings.Builder
	for i, f := range films {
		fmt.Fprintf(&b, "%2d. %s [%s] by %s: %d votes (%d cast, %d attendance)\n",
			i+1, f.FilmName, f.FilmID, f.DiscordUserID, f.TotalVotes(), f.CastVotes, f.AttendanceVotes)
	}
	return b.String()
}

func newPeekCommand(opts *GuildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Show the ranked nominations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				films, err := e.Nominations(ctx)
				if err != nil {
					return out.EngineError("peek", err)
				}
				return out.Text(filmViews(films), formatStandings(films))
			})
		},
	}
}

// HistoryPage is the JSON output of a paged history request.
type HistoryPage struct {
	Films   []FilmView `json:"films"`
	NextKey string     `json:"next_key,omitempty"`
}

func newHistoryCommand(opts *GuildOptions) *cobra.Command {
	var limit int
	var after string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show watched films, oldest first",
		Long: `Show watched films, oldest first.

With --limit the history is paged; pass the printed next key as --after to
continue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				var page engine.WatchedPage
				if limit > 0 || after != "" {
					var err error
					page, err = e.WatchedFilmsAfter(ctx, limit, after)
					if err != nil {
						return out.EngineError("history", err)
					}
				} else {
					films, err := e.WatchedFilms(ctx)
					if err != nil {
						return out.EngineError("history", err)
					}
					page.Films = films
				}

				var b strings.Builder
				for _, f := range page.Films {
					fmt.Fprintf(&b, "%s %s [%s] by %s, attended by %s\n",
						f.Watch.DateWatched.Format(time.DateOnly), f.FilmName, f.FilmID,
						f.DiscordUserID, strings.Join(f.Watch.UsersAttended, ", "))
				}
				if len(page.Films) == 0 {
					b.WriteString("No films watched.\n")
				}
				if page.NextKey != "" {
					fmt.Fprintf(&b, "next: %s\n", page.NextKey)
				}
				return out.Text(HistoryPage{Films: filmViews(page.Films), NextKey: page.NextKey}, b.String())
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 lists everything)")
	cmd.Flags().StringVar(&after, "after", "", "continue after this key")
	return cmd
}

func newNominateCommand(opts *GuildOptions) *cobra.Command {
	var imdb, filmID string

	cmd := &cobra.Command{
		Use:   "nominate <user-id> <film name...>",
		Short: "Nominate a film for a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				n := engine.Nomination{
					DiscordUserID: args[0],
					FilmName:      strings.Join(args[1:], " "),
					FilmID:        filmID,
					At:            opts.now(),
				}
				if n.FilmID == "" {
					n.FilmID = opts.newFilmID()
				}
				if imdb != "" {
					n.IMDbID = record.Ptr(imdb)
				}
				film, err := e.NominateFilm(ctx, n)
				if err != nil {
					return out.EngineError("nominate", err)
				}
				return out.Text(filmView(film), fmt.Sprintf("%s nominated %s [%s]\n", film.DiscordUserID, film.FilmName, film.FilmID))
			})
		},
	}
	cmd.Flags().StringVar(&imdb, "imdb", "", "IMDb ID without the tt prefix")
	cmd.Flags().StringVar(&filmID, "film-id", "", "film ID (default a new UUIDv7)")
	return cmd
}

// VoteResult is the JSON output of the vote command.
type VoteResult struct {
	User   string `json:"user"`
	FilmID string `json:"film_id"`
	Status string `json:"status"`
}

func newVoteCommand(opts *GuildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <user-id> <film-id>",
		Short: "Cast a user's preference vote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				status, err := e.CastPreferenceVote(ctx, args[0], args[1])
				if err != nil {
					return out.EngineError("vote", err)
				}
				res := VoteResult{User: args[0], FilmID: args[1], Status: string(status)}
				text := fmt.Sprintf("%s voted for %s\n", args[0], args[1])
				if status == engine.VotingComplete {
					text += "Everyone has voted.\n"
				}
				return out.Text(res, text)
			})
		},
	}
}

func newWatchCommand(opts *GuildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <film-id> <present-user-id...>",
		Short: "Start watching a nominated film",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				film, err := e.StartWatchingFilm(ctx, args[0], args[1:], opts.now())
				if err != nil {
					return out.EngineError("watch", err)
				}
				return out.Text(filmView(film), fmt.Sprintf("Started watching %s with %s\n",
					film.FilmName, strings.Join(film.Watch.UsersAttended, ", ")))
			})
		},
	}
}

// AttendanceResult is the JSON output of the here command.
type AttendanceResult struct {
	User   string `json:"user"`
	Status string `json:"status"`
}

func newHereCommand(opts *GuildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "here <user-id>",
		Short: "Register a user's attendance at the latest watch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				status, err := e.RecordAttendanceVote(ctx, args[0], opts.now())
				if err != nil {
					return out.EngineError("here", err)
				}
				text := fmt.Sprintf("%s has attended\n", args[0])
				if status == engine.AttendanceAlreadyRegistered {
					text = fmt.Sprintf("%s was already registered\n", args[0])
				}
				return out.Text(AttendanceResult{User: args[0], Status: string(status)}, text)
			})
		},
	}
}

// OutstandingView is the JSON output of the naughty command.
type OutstandingView struct {
	NeedToNominate []string `json:"need_to_nominate"`
	NeedToVote     []string `json:"need_to_vote"`
}

func newNaughtyCommand(opts *GuildOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "naughty",
		Short: "List users who still need to nominate or vote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(ctx context.Context, e *engine.Engine, out *OutputFormatter) error {
				o, err := e.Outstanding(ctx)
				if err != nil {
					return out.EngineError("naughty", err)
				}
				view := OutstandingView{NeedToNominate: o.NeedToNominate, NeedToVote: o.NeedToVote}
				if view.NeedToNominate == nil {
					view.NeedToNominate = []string{}
				}
				if view.NeedToVote == nil {
					view.NeedToVote = []string{}
				}

				var b strings.Builder
				if len(o.NeedToNominate) > 0 {
					fmt.Fprintf(&b, "need to nominate: %s\n", strings.Join(o.NeedToNominate, ", "))
				}
				if len(o.NeedToVote) > 0 {
					fmt.Fprintf(&b, "need to vote: %s\n", strings.Join(o.NeedToVote, ", "))
				}
				if !o.Any() {
					b.WriteString("Nothing outstanding.\n")
				}
				return out.Text(view, b.String())
			})
		},
	}
}
