// Command students runs CRUD operations against the students table.
//
//	students setup
//	students get-all
//	students add --first Hussam --last Nabtiti --email hussam.nabtiti@example.com --date 2023-09-04
//	students update-email --id 1 --email john.doe+updated@example.com
//	students delete --id 3
//
// The connection comes from PGHOST, PGPORT, PGUSER, PGPASSWORD and
// PGDATABASE, a .env file, or --config.
package main

import (
	"os"

	"github.com/aanand-mishra/students/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
