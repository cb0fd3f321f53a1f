package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chaeyeon26/Movie-App/internal/model"
)

var listingCols = []string{
	"movie_id", "title", "genre", "release_year", "summary", "poster_url", "avg_rating", "review_count",
}

func TestMovieListJoinsRatingView(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(`LEFT JOIN movie_avg_rating v ON v\.movie_id = m\.movie_id`).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow(1, "Dune", "sci-fi", 2021, "", "", 4.5, 12).
			AddRow(2, "New Release", "drama", 2025, "", "", 0.0, 0))

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 4.5, out[0].AvgRating)
	assert.Equal(t, 12, out[0].ReviewCount)
	// Movies without reviews surface 0, never NULL.
	assert.Zero(t, out[1].AvgRating)
	assert.Zero(t, out[1].ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieSearchBuildsOptionalFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(`AND m\.title LIKE \? AND m\.genre = \? AND m\.release_year = \?`).
		WithArgs("%Dune%", "sci-fi", 2021).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow(1, "Dune", "sci-fi", 2021, "", "", 4.5, 12))

	out, err := repo.Search(context.Background(), " Dune ", "sci-fi", 2021)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Dune", out[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieRecommendExcludesSelf(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(`WHERE m\.genre = \? AND m\.movie_id <> \?`).
		WithArgs("sci-fi", uint64(1), 3).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow(5, "Arrival", "sci-fi", 2016, "", "", 4.2, 8))

	out, err := repo.Recommend(context.Background(), 1, "sci-fi", 3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(5), out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(`FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieUpdateDistinguishesMissingFromNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	m := &model.Movie{ID: 1, Title: "Dune"}

	// No rows affected but the row exists: a no-op update is fine.
	mock.ExpectExec(`UPDATE movies SET title = \?`).
		WithArgs("Dune", "", 0, "", "", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT movie_id FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id"}).AddRow(1))
	assert.NoError(t, repo.Update(context.Background(), m))

	// No rows affected and no row: the movie is gone.
	mock.ExpectExec(`UPDATE movies SET title = \?`).
		WithArgs("Dune", "", 0, "", "", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT movie_id FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(1)).
		WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(context.Background(), m), ErrMovieNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieHasScreens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM screens WHERE movie_id = \?\)`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	has, err := repo.HasScreens(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMovieRepo(db)

	mock.ExpectExec(`DELETE FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 404), ErrMovieNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
