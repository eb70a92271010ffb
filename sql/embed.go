// Package migrations embute as migrações goose do stockcart.
package migrations

import "embed"

// Migrations contém os arquivos *.sql aplicados pelo goose.
//
//go:embed *.sql
var Migrations embed.FS
