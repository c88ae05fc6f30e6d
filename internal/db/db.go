package db

// DB is the database port the repositories are built against. It allows
// swapping GORM for sqlc, pgx, bun or an in-memory store without touching
// the domain layer.
type DB interface {
	Conn() any
}
