package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

var createQuizEngine = []string{
	`CREATE TABLE IF NOT EXISTS quizzes (
		id                     text PRIMARY KEY,
		teacher_id             text NOT NULL,
		title                  text NOT NULL,
		join_code              text,
		status                 text NOT NULL CHECK (status IN ('created', 'waiting', 'active', 'finished')),
		time_per_question      integer NOT NULL CHECK (time_per_question > 0),
		shuffle_questions      boolean NOT NULL DEFAULT false,
		shuffle_options        boolean NOT NULL DEFAULT false,
		max_participants       integer NOT NULL CHECK (max_participants > 0),
		current_question_index integer NOT NULL DEFAULT 0,
		created_at             timestamptz NOT NULL,
		started_at             timestamptz,
		ended_at               timestamptz
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS quizzes_live_join_code
		ON quizzes (join_code) WHERE join_code IS NOT NULL AND status <> 'finished'`,
	`CREATE INDEX IF NOT EXISTS quizzes_teacher ON quizzes (teacher_id)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id                   text PRIMARY KEY,
		quiz_id              text NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
		text                 text NOT NULL,
		options              text[] NOT NULL,
		correct_option_index integer NOT NULL,
		points               integer NOT NULL CHECK (points >= 0),
		time_limit           integer NOT NULL CHECK (time_limit > 0),
		position             integer NOT NULL,
		CHECK (cardinality(options) BETWEEN 2 AND 6),
		CHECK (correct_option_index >= 0 AND correct_option_index < cardinality(options))
	)`,
	`CREATE INDEX IF NOT EXISTS questions_quiz_position ON questions (quiz_id, position)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id             text PRIMARY KEY,
		quiz_id        text NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
		student_id     text NOT NULL,
		display_name   text NOT NULL,
		avatar_token   text NOT NULL DEFAULT '',
		state          text NOT NULL CHECK (state IN ('joined', 'answering', 'finished')),
		total_score    integer NOT NULL DEFAULT 0,
		correct_count  integer NOT NULL DEFAULT 0,
		wrong_count    integer NOT NULL DEFAULT 0,
		current_streak integer NOT NULL DEFAULT 0,
		best_streak    integer NOT NULL DEFAULT 0,
		rank           integer NOT NULL DEFAULT 0,
		coins_earned   bigint NOT NULL DEFAULT 0,
		joined_at      timestamptz NOT NULL,
		UNIQUE (quiz_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id                  text PRIMARY KEY,
		quiz_id             text NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
		participant_id      text NOT NULL REFERENCES participants (id) ON DELETE CASCADE,
		question_id         text NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
		selected_option     integer NOT NULL,
		is_correct          boolean NOT NULL,
		points_earned       integer NOT NULL CHECK (points_earned >= 0),
		response_latency_ms bigint NOT NULL,
		created_at          timestamptz NOT NULL,
		UNIQUE (participant_id, question_id)
	)`,
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, createQuizEngine)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, []string{
				`DROP TABLE IF EXISTS answers`,
				`DROP TABLE IF EXISTS participants`,
				`DROP TABLE IF EXISTS questions`,
				`DROP TABLE IF EXISTS quizzes`,
			})
		},
	)
}
