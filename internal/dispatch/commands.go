package dispatch

import (
	"context"
	"fmt"

	"github.com/roach88/filmclub/internal/engine"
)

// Option names of the registered commands.
const optionFilm = "film"

func (d *Dispatcher) handleCommand(ctx context.Context, req request) (Response, error) {
	e := d.engineFor(req.guildID)

	switch req.name {
	case "nominate":
		return d.nominate(ctx, e, req)
	case "vote":
		return d.vote(ctx, e, req)
	case "peek":
		return d.peek(ctx, e)
	case "watch":
		return d.watch(ctx, e, req)
	case "here":
		return d.registerAttendance(ctx, e, req.userID)
	case "naughty":
		return d.naughty(ctx, e)
	case "history":
		return d.history(ctx, e)
	default:
		return Response{}, fmt.Errorf("unknown application command (/%s)", req.name)
	}
}

func (d *Dispatcher) handleComponent(ctx context.Context, req request, customID string) (Response, error) {
	e := d.engineFor(req.guildID)

	switch customID {
	case CustomIDRegisterAttendance:
		return d.registerAttendance(ctx, e, req.userID)
	case CustomIDShame:
		o, err := e.Outstanding(ctx)
		if err != nil {
			return Response{}, err
		}
		return reply(formatOutstanding(o)), nil
	default:
		return Response{}, fmt.Errorf("unknown custom_id for button component (%s)", customID)
	}
}

func (d *Dispatcher) nominate(ctx context.Context, e *engine.Engine, req request) (Response, error) {
	value, err := req.option(optionFilm)
	if err != nil {
		return Response{}, err
	}
	name, imdbID := DecodeFilm(value)

	film, err := e.NominateFilm(ctx, engine.Nomination{
		DiscordUserID: req.userID,
		FilmName:      name,
		IMDbID:        imdbID,
		FilmID:        d.ids.Generate(),
		At:            d.clock.Now(),
	})
	if err != nil {
		return Response{}, err
	}

	films, err := e.Nominations(ctx)
	if err != nil {
		return Response{}, err
	}
	return reply(fmt.Sprintf("%s has successfully nominated %s.\n\nThe current list of nominations are:\n%s",
		mention(req.userID), film.FilmName, formatNominations(films))), nil
}

func (d *Dispatcher) vote(ctx context.Context, e *engine.Engine, req request) (Response, error) {
	filmID, err := req.option(optionFilm)
	if err != nil {
		return Response{}, err
	}

	status, err := e.CastPreferenceVote(ctx, req.userID, filmID)
	if err != nil {
		return Response{}, err
	}

	// The film may have been watched since the vote landed.
	name := filmID
	if film, ok, err := e.NominatedFilm(ctx, filmID); err != nil {
		return Response{}, err
	} else if ok {
		name = film.FilmName
	}

	if status != engine.VotingComplete {
		return reply(fmt.Sprintf("%s has voted for %s", mention(req.userID), name)), nil
	}

	films, err := e.Nominations(ctx)
	if err != nil {
		return Response{}, err
	}
	return reply(fmt.Sprintf("%s has voted for %s.\n\nThis was the final vote and the standings are:\n%s",
		mention(req.userID), name, formatNominations(films))), nil
}

func (d *Dispatcher) peek(ctx context.Context, e *engine.Engine) (Response, error) {
	films, err := e.Nominations(ctx)
	if err != nil {
		return Response{}, err
	}
	return ephemeral("The current list of nominations are:\n" + formatNominations(films)), nil
}

// watch starts the film with only the caller present. Everyone else registers
// through the attached button or /here.
func (d *Dispatcher) watch(ctx context.Context, e *engine.Engine, req request) (Response, error) {
	filmID, err := req.option(optionFilm)
	if err != nil {
		return Response{}, err
	}

	film, err := e.StartWatchingFilm(ctx, filmID, []string{req.userID}, d.clock.Now())
	if err != nil {
		return Response{}, err
	}

	content := fmt.Sprintf("Started watching %s!\n\n"+
		"Everyone other than %s should record their attendance below or using `/here`.\n\n"+
		"%s can now nominated their next suggestion with `/nominate`.\n",
		film.FilmName, mention(req.userID), mention(film.DiscordUserID))
	return Response{Type: ResponseChannelMessage, Data: &Message{
		Content:    content,
		Components: buttonRow("Register Attendance", ButtonPrimary, CustomIDRegisterAttendance),
	}}, nil
}

// registerAttendance backs both /here and the attendance button. Repeat
// registrations are answered privately so they cannot flood the channel.
func (d *Dispatcher) registerAttendance(ctx context.Context, e *engine.Engine, userID string) (Response, error) {
	status, err := e.RecordAttendanceVote(ctx, userID, d.clock.Now())
	if err != nil {
		return Response{}, err
	}
	if status == engine.AttendanceAlreadyRegistered {
		return ephemeral("Your attendance has already been recorded"), nil
	}
	return reply(mention(userID) + " has attended"), nil
}

// naughty lists outstanding tasks privately and offers a button to post the
// same list to the channel.
func (d *Dispatcher) naughty(ctx context.Context, e *engine.Engine) (Response, error) {
	o, err := e.Outstanding(ctx)
	if err != nil {
		return Response{}, err
	}

	msg := &Message{Content: formatOutstanding(o), Flags: FlagEphemeral}
	if o.Any() {
		msg.Components = buttonRow("Publically Shame", ButtonDanger, CustomIDShame)
	}
	return Response{Type: ResponseChannelMessage, Data: msg}, nil
}

func (d *Dispatcher) history(ctx context.Context, e *engine.Engine) (Response, error) {
	films, err := e.WatchedFilms(ctx)
	if err != nil {
		return Response{}, err
	}
	return ephemeral(formatHistory(films)), nil
}
