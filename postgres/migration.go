// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"database/sql"

	migrate "github.com/rubenv/sql-migrate"
)

// This file maintains the database migration code.  See
// https://github.com/rubenv/sql-migrate for details of what goes in
// here.  This runs either when an Exporter is opened or from the
// command-line tool.

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_surveys",
			Up: []string{
				`CREATE TABLE ` + surveyTable + `(
					id INTEGER PRIMARY KEY,
					title TEXT NOT NULL,
					type TEXT NOT NULL,
					status TEXT NOT NULL,
					created_on TIMESTAMP WITH TIME ZONE,
					modified_on TIMESTAMP WITH TIME ZONE,
					exported_at TIMESTAMP WITH TIME ZONE NOT NULL
				)`,
				`CREATE TABLE ` + questionTable + `(
					survey_id INTEGER NOT NULL REFERENCES ` + surveyTable + `(id) ON DELETE CASCADE,
					id INTEGER NOT NULL,
					page_id INTEGER,
					type TEXT NOT NULL,
					title TEXT NOT NULL,
					short_name TEXT NOT NULL,
					parent_question_id INTEGER,
					PRIMARY KEY(survey_id, id)
				)`,
			},
			Down: []string{
				`DROP TABLE ` + questionTable,
				`DROP TABLE ` + surveyTable,
			},
		},
		{
			Id: "2_responses",
			Up: []string{
				`CREATE TABLE ` + responseTable + `(
					survey_id INTEGER NOT NULL REFERENCES ` + surveyTable + `(id) ON DELETE CASCADE,
					id INTEGER NOT NULL,
					contact_id INTEGER,
					status TEXT NOT NULL,
					is_test_data BOOLEAN,
					datesubmitted TIMESTAMP WITH TIME ZONE,
					meta JSONB,
					url JSONB,
					PRIMARY KEY(survey_id, id)
				)`,
				`CREATE INDEX ` + responseTable + `_submitted ON ` + responseTable + `(survey_id, datesubmitted)`,
				`CREATE TABLE ` + answerTable + `(
					survey_id INTEGER NOT NULL,
					response_id INTEGER NOT NULL,
					question_id INTEGER NOT NULL,
					option_id INTEGER,
					question_pipe TEXT NOT NULL,
					answer_text TEXT NOT NULL,
					other_text TEXT NOT NULL,
					FOREIGN KEY(survey_id, response_id)
						REFERENCES ` + responseTable + `(survey_id, id) ON DELETE CASCADE
				)`,
				`CREATE INDEX ` + answerTable + `_question ON ` + answerTable + `(survey_id, question_id)`,
			},
			Down: []string{
				`DROP TABLE ` + answerTable,
				`DROP TABLE ` + responseTable,
			},
		},
	},
}

// Upgrade upgrades a database to the latest database schema version.
func Upgrade(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Up)
	return err
}

// Drop clears a database by running all of the migrations in reverse,
// ultimately resulting in dropping all of the tables.
func Drop(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Down)
	return err
}
