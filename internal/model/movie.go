package model

// Movie represents a film in the catalogue as stored in the `movies`
// table. The AvgRating column is a cached aggregate: it is overwritten
// by the review recompute path whenever a review for the movie is
// created, updated or deleted. Listings additionally join the
// movie_avg_rating view for the review count.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – movie title.
//  Genre       – genre label (nullable in DB, empty string here).
//  ReleaseYear – year of release, 0 when unknown.
//  Summary     – synopsis text.
//  PosterURL   – reference to the poster image.
//  AvgRating   – cached mean rating rounded to one decimal; 0 with no reviews.
type Movie struct {
	ID          uint64  // movies.movie_id
	Title       string  // movies.title
	Genre       string  // movies.genre
	ReleaseYear int     // movies.release_year
	Summary     string  // movies.summary
	PosterURL   string  // movies.poster_url
	AvgRating   float64 // movies.avg_rating
}
