package main

import (
	"log"
	"os"

	"golang.org/x/term"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	emailsvc "github.com/Evenson-7/OJTManagement-sub000/services/email"
	logsvc "github.com/Evenson-7/OJTManagement-sub000/services/logger"
	"github.com/Evenson-7/OJTManagement-sub000/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	errAndDie(db.Ping())

	// start CLI
	cli, err := newCommandLine(conf, db, os.Stdout, logsvc.NewRollbarLogger(logger, conf), emailsvc.NewConsoleService(conf, logger))
	errAndDie(err)
	cli.color = term.IsTerminal(int(os.Stdout.Fd()))

	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("error: %s", describe(err))
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
