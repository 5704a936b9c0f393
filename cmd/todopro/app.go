package main

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todopro/internal/auth"
	"todopro/internal/config"
	"todopro/internal/repository"
	"todopro/internal/service"
)

// application holds the storage handle and services shared by every command.
type application struct {
	cfg      config.Config
	db       *gorm.DB
	loc      *time.Location
	accounts *service.AccountService
	profiles *service.ProfileService
	tasks    *service.TaskService
	reports  *service.ReportService
	digests  *service.DigestService
}

func openApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	loc := cfg.Location()
	taskRepo := repository.NewTaskRepository(db)
	return &application{
		cfg:      cfg,
		db:       db,
		loc:      loc,
		accounts: service.NewAccountService(db, auth.NewPasswordHasher(cfg.BcryptCost)),
		profiles: service.NewProfileService(db),
		tasks:    service.NewTaskService(taskRepo, time.Now, loc),
		reports:  service.NewReportService(repository.NewUserRepository(db), taskRepo, time.Now, loc),
		digests:  service.NewDigestService(taskRepo, time.Now, loc),
	}, nil
}

func (a *application) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
