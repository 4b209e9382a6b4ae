package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/miradi/apps/api/echo"
	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/query"
	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
	emailsvc "github.com/trezcool/miradi/services/email"
	logsvc "github.com/trezcool/miradi/services/logger"
	uploadsvc "github.com/trezcool/miradi/services/upload"
	"github.com/trezcool/miradi/storage/database"
	sqlxrepos "github.com/trezcool/miradi/storage/database/sqlx"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	fileStore := uploadsvc.NewLocalStore()

	usrRepo := sqlxrepos.NewUserRepository(db)
	topicRepo := sqlxrepos.NewTopicRepository(db)
	groupRepo := sqlxrepos.NewGroupRepository(db)
	subRepo := sqlxrepos.NewSubmissionRepository(db)
	queryRepo := sqlxrepos.NewQueryRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc)
	topicSvc := topic.NewService(topicRepo)
	groupSvc := group.NewService(groupRepo, topicSvc, usrSvc)
	subSvc := submission.NewService(subRepo, groupRepo, usrSvc, fileStore, mailSvc)
	querySvc := query.NewService(queryRepo, groupRepo)

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(&echoapi.Options{
		Address:       core.Conf.Server.Address(),
		Logger:        logger,
		UserSvc:       usrSvc,
		TopicSvc:      topicSvc,
		GroupSvc:      groupSvc,
		SubmissionSvc: subSvc,
		QuerySvc:      querySvc,
	})
	go server.Start()

	// shutdown
	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
