package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/filmclub/internal/record"
)

// RankNominations returns the films in watch priority order:
//  1. most total votes (cast + attendance)
//  2. most cast votes
//  3. earliest nomination
//  4. film ID, so the order never depends on input order
//
// The input slice is not modified.
func RankNominations(films []record.Film) []record.Film {
	ranked := slices.Clone(films)
	slices.SortFunc(ranked, compareNominations)
	return ranked
}

func compareNominations(a, b record.Film) int {
	if c := cmp.Compare(b.TotalVotes(), a.TotalVotes()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.CastVotes, a.CastVotes); c != 0 {
		return c
	}
	if c := a.DateNominated.Compare(b.DateNominated); c != 0 {
		return c
	}
	return cmp.Compare(a.FilmID, b.FilmID)
}

// sortByNominationDate orders films oldest nomination first.
func sortByNominationDate(films []record.Film) {
	slices.SortFunc(films, func(a, b record.Film) int {
		if c := a.DateNominated.Compare(b.DateNominated); c != 0 {
			return c
		}
		return cmp.Compare(a.FilmID, b.FilmID)
	})
}
