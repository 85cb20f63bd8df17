// package repositories provides the persistence layer for exported tracks.
//
// TrackRepository stores enriched records in SQLite and serves the query
// API's filtered, paginated reads along with genre, year and library-wide
// aggregations.
package repositories
