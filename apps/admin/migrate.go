package main

import (
	"github.com/reminderx/backend/storage/database"
)

var migrationRunFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrationRunFunc(args[0], cli.db, arguments...)
}
