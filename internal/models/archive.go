package models

import (
	"time"
)

// ExportArchive is a stored copy of one explicit spreadsheet export
type ExportArchive struct {
	ID         string    `json:"id" db:"id"`
	Collection string    `json:"collection" db:"collection"`
	Format     string    `json:"format" db:"format"`
	Filename   string    `json:"filename" db:"filename"`
	RowCount   int       `json:"row_count" db:"row_count"`
	Username   string    `json:"username" db:"username"`
	Content    []byte    `json:"-" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CredentialSeed is an extra login read from the database at startup
type CredentialSeed struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         Role   `db:"role"`
}
