// Package dummydb is an in-memory database used in tests and local hacking.
// It honors the same repository contracts as the SQL store, locks included.
package dummydb

import (
	"sync"
	"time"

	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/query"
	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
)

type (
	DB struct {
		user       *userTable
		topic      *topicTable
		group      *groupTable
		submission *submissionTable
		query      *queryTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	topicTable struct {
		sync.RWMutex
		table map[string]*topic.Topic
	}

	membership struct {
		studentID string
		joinedAt  time.Time
	}

	groupTable struct {
		sync.RWMutex
		table   map[string]*group.ProjectGroup
		members map[string][]membership // groupID -> memberships, oldest first
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*submission.Submission
	}

	queryTable struct {
		sync.RWMutex
		table map[string]*query.Query
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		topic:      &topicTable{table: make(map[string]*topic.Topic)},
		group:      &groupTable{table: make(map[string]*group.ProjectGroup), members: make(map[string][]membership)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
		query:      &queryTable{table: make(map[string]*query.Query)},
	}
	return db, nil
}
